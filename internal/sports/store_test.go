package sports

import (
	"context"
	"errors"
	"testing"
	"time"

	dbgen "github.com/codr1/Courtbook/internal/db/generated"
	"github.com/codr1/Courtbook/internal/testutil"
	"github.com/codr1/Courtbook/internal/timezone"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var validTennis = Input{Sport: "tennis", Courts: 2, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}

func newStore(t *testing.T) (*Store, testutil.Fixture) {
	t.Helper()
	fixture := testutil.NewFixture(t, "UTC")
	clock := fixedClock{now: time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)}
	return NewStore(fixture.DB, timezone.New(clock)), fixture
}

// insertBooking writes a ledger row directly; the booking package is the
// normal writer but importing it here would create a cycle.
func insertBooking(t *testing.T, f testutil.Fixture, court int64, start time.Time, minutes int) dbgen.Booking {
	t.Helper()
	b, err := f.DB.Queries.CreateBooking(context.Background(), dbgen.CreateBookingParams{
		ClubID:          f.Club.ID,
		Sport:           "tennis",
		BookingDate:     start.Format("2006-01-02"),
		CourtIndex:      court,
		SlotIndex:       0,
		SlotStartUtc:    start,
		SlotEndUtc:      start.Add(time.Duration(minutes) * time.Minute),
		OwnerUserID:     f.Alice.ID,
		CreatedByUserID: f.Alice.ID,
		CreatedAt:       start.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	return b
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"valid", validTennis, ""},
		{"blank sport", Input{Sport: "  ", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}, "sport"},
		{"long sport", Input{Sport: string(make([]byte, 65)), Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}, "sport"},
		{"zero courts", Input{Sport: "padel", Courts: 0, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}, "courts"},
		{"too many courts", Input{Sport: "padel", Courts: 65, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}, "courts"},
		{"open hour", Input{Sport: "padel", Courts: 1, OpenHour: 24, CloseHour: 24, SlotMinutes: 60}, "openHour"},
		{"close hour", Input{Sport: "padel", Courts: 1, OpenHour: 8, CloseHour: 25, SlotMinutes: 60}, "closeHour"},
		{"close before open", Input{Sport: "padel", Courts: 1, OpenHour: 10, CloseHour: 8, SlotMinutes: 60}, "closeHour"},
		{"slot too short", Input{Sport: "padel", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 4}, "slotMinutes"},
		{"slot longer than window", Input{Sport: "padel", Courts: 1, OpenHour: 8, CloseHour: 9, SlotMinutes: 90}, "slotMinutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Normalize().Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != tt.field {
				t.Fatalf("expected field error on %s, got %v", tt.field, err)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCreateAndList(t *testing.T) {
	store, f := newStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, f.Club.ID, Input{Sport: "  Tennis ", Courts: 2, OpenHour: 8, CloseHour: 10, SlotMinutes: 60})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Sport != "Tennis" {
		t.Fatalf("expected trimmed name, got %q", created.Sport)
	}

	if _, err := store.Create(ctx, f.Club.ID, validTennis); !errors.Is(err, ErrDuplicateSport) {
		t.Fatalf("expected ErrDuplicateSport, got %v", err)
	}

	configs, err := store.List(ctx, f.Club.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(configs) != 1 || configs[0].ID != created.ID {
		t.Fatalf("unexpected configs %+v", configs)
	}

	got, err := store.Get(ctx, f.Club.ID, "TENNIS")
	if err != nil || got.ID != created.ID {
		t.Fatalf("get case-insensitive: %v", err)
	}

	if _, err := store.List(ctx, 999); !errors.Is(err, ErrClubNotFound) {
		t.Fatalf("expected ErrClubNotFound, got %v", err)
	}
	if _, err := store.Create(ctx, 999, validTennis); !errors.Is(err, ErrClubNotFound) {
		t.Fatalf("expected ErrClubNotFound, got %v", err)
	}
}

func TestUpdateRejectsStrandingUpcomingBookings(t *testing.T) {
	store, f := newStore(t)
	ctx := context.Background()

	sc, err := store.Create(ctx, f.Club.ID, validTennis)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	insertBooking(t, f, 1, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), 60)

	tests := []struct {
		name string
		in   Input
	}{
		{"court removed", Input{Sport: "tennis", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}},
		{"slot length changed", Input{Sport: "tennis", Courts: 2, OpenHour: 8, CloseHour: 10, SlotMinutes: 30}},
		{"hours shrunk", Input{Sport: "tennis", Courts: 2, OpenHour: 8, CloseHour: 9, SlotMinutes: 60}},
		{"renamed", Input{Sport: "padel", Courts: 2, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Update(ctx, f.Club.ID, sc.ID, tt.in); !errors.Is(err, ErrConfigConflict) {
				t.Fatalf("expected ErrConfigConflict, got %v", err)
			}
		})
	}

	updated, err := store.Update(ctx, f.Club.ID, sc.ID, Input{Sport: "tennis", Courts: 4, OpenHour: 7, CloseHour: 12, SlotMinutes: 60})
	if err != nil {
		t.Fatalf("compatible update: %v", err)
	}
	if updated.Courts != 4 || updated.OpenHour != 7 {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestUpdateIgnoresPastBookings(t *testing.T) {
	store, f := newStore(t)
	ctx := context.Background()

	sc, err := store.Create(ctx, f.Club.ID, validTennis)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	insertBooking(t, f, 1, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC), 60)

	if _, err := store.Update(ctx, f.Club.ID, sc.ID, Input{Sport: "tennis", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 30}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestUpdateErrors(t *testing.T) {
	store, f := newStore(t)
	ctx := context.Background()

	tennis, err := store.Create(ctx, f.Club.ID, validTennis)
	if err != nil {
		t.Fatalf("create tennis: %v", err)
	}
	if _, err := store.Create(ctx, f.Club.ID, Input{Sport: "padel", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}); err != nil {
		t.Fatalf("create padel: %v", err)
	}

	if _, err := store.Update(ctx, f.Club.ID, tennis.ID, Input{Sport: "PADEL", Courts: 1, OpenHour: 8, CloseHour: 10, SlotMinutes: 60}); !errors.Is(err, ErrDuplicateSport) {
		t.Fatalf("expected ErrDuplicateSport, got %v", err)
	}
	if _, err := store.Update(ctx, f.Club.ID, 999, validTennis); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Update(ctx, f.Club.ID, tennis.ID, Input{Sport: "tennis"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDeleteKeepsBookings(t *testing.T) {
	store, f := newStore(t)
	ctx := context.Background()

	sc, err := store.Create(ctx, f.Club.ID, validTennis)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b := insertBooking(t, f, 0, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC), 60)

	if err := store.Delete(ctx, f.Club.ID, sc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, f.Club.ID, sc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	kept, err := f.DB.Queries.GetBookingByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("booking should survive sport deletion: %v", err)
	}
	if kept.Status != "active" {
		t.Fatalf("expected active booking, got %s", kept.Status)
	}
	orphans, err := f.DB.Queries.CountOrphanedActiveBookings(ctx)
	if err != nil || orphans != 1 {
		t.Fatalf("expected 1 orphaned booking, got %d (%v)", orphans, err)
	}
}

func TestSetClubTimezone(t *testing.T) {
	if !timezone.Valid("Europe/Berlin") {
		t.Skip("zoneinfo unavailable")
	}
	store, f := newStore(t)
	ctx := context.Background()

	club, err := store.SetClubTimezone(ctx, f.Club.ID, "Europe/Berlin")
	if err != nil {
		t.Fatalf("set timezone: %v", err)
	}
	if club.Timezone != "Europe/Berlin" {
		t.Fatalf("expected Europe/Berlin, got %s", club.Timezone)
	}

	if _, err := store.SetClubTimezone(ctx, f.Club.ID, "Mars/Olympus_Mons"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	insertBooking(t, f, 0, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC), 60)
	if _, err := store.SetClubTimezone(ctx, f.Club.ID, "UTC"); !errors.Is(err, ErrTimezoneLocked) {
		t.Fatalf("expected ErrTimezoneLocked, got %v", err)
	}
	if _, err := store.SetClubTimezone(ctx, f.Club.ID, "Europe/Berlin"); err != nil {
		t.Fatalf("unchanged timezone should pass the trigger: %v", err)
	}
}
