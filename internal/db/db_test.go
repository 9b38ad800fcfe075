package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gosqlite3 "github.com/mattn/go-sqlite3"

	dbgen "github.com/codr1/Courtbook/internal/db/generated"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"bare path", "app.db", []string{"app.db?_fk=1", "_journal_mode=WAL", "_txlock=immediate", "_busy_timeout=2000"}},
		{"keeps existing", "app.db?_busy_timeout=10", []string{"_busy_timeout=10", "&_fk=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sqliteDSN(tt.in, 2*time.Second)
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Fatalf("dsn %q missing %q", got, part)
				}
			}
			if strings.Count(got, "_busy_timeout=") != 1 {
				t.Fatalf("dsn %q repeats busy timeout", got)
			}
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	busy := fmt.Errorf("insert: %w", gosqlite3.Error{Code: gosqlite3.ErrBusy})
	if !IsBusy(busy) {
		t.Fatalf("expected busy")
	}
	if IsBusy(errors.New("busy")) {
		t.Fatalf("plain errors are never busy")
	}

	unique := gosqlite3.Error{Code: gosqlite3.ErrConstraint, ExtendedCode: gosqlite3.ErrConstraintUnique}
	if !IsUniqueViolation(unique) || IsForeignKeyViolation(unique) || IsTriggerAbort(unique) {
		t.Fatalf("unexpected classification for unique violation")
	}
}

func TestActiveSlotUniqueIndex(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.Queries.CreateUser(ctx, dbgen.CreateUserParams{Username: "ann", Role: "manager"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	club, err := database.Queries.CreateClub(ctx, dbgen.CreateClubParams{Name: "Lakeside", Timezone: "UTC", ManagerUserID: user.ID})
	if err != nil {
		t.Fatalf("create club: %v", err)
	}

	start := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	params := dbgen.CreateBookingParams{
		ClubID:          club.ID,
		Sport:           "tennis",
		BookingDate:     "2025-01-10",
		SlotStartUtc:    start,
		SlotEndUtc:      start.Add(time.Hour),
		OwnerUserID:     user.ID,
		CreatedByUserID: user.ID,
		CreatedAt:       start,
	}
	first, err := database.Queries.CreateBooking(ctx, params)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := database.Queries.CreateBooking(ctx, params); !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// Timezone changes are refused while the booking is active.
	_, err = database.Queries.UpdateClubTimezone(ctx, dbgen.UpdateClubTimezoneParams{Timezone: "Europe/Paris", ID: club.ID})
	if !IsTriggerAbort(err) {
		t.Fatalf("expected trigger abort, got %v", err)
	}

	if _, err := database.Queries.CancelBooking(ctx, dbgen.CancelBookingParams{ID: first.ID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := database.Queries.CreateBooking(ctx, params); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	sentinel := errors.New("stop")

	err := database.RunInTx(ctx, func(txdb *DB) error {
		if _, err := txdb.Queries.CreateUser(ctx, dbgen.CreateUserParams{Username: "ghost", Role: "member"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if _, err := database.Queries.GetUserByUsername(ctx, "ghost"); err == nil {
		t.Fatalf("expected user insert to be rolled back")
	}
}
