package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/codr1/Courtbook/internal/db"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// CreateUser inserts a user with the given role ("member" or "manager").
func CreateUser(t *testing.T, database *db.DB, username, role string) dbgen.User {
	t.Helper()

	user, err := database.Queries.CreateUser(context.Background(), dbgen.CreateUserParams{
		Username: username,
		Email:    sql.NullString{String: username + "@example.com", Valid: true},
		Role:     role,
	})
	if err != nil {
		t.Fatalf("insert user %s: %v", username, err)
	}
	return user
}

// CreateClub inserts a club managed by managerID.
func CreateClub(t *testing.T, database *db.DB, name, timezone string, managerID int64) dbgen.Club {
	t.Helper()

	club, err := database.Queries.CreateClub(context.Background(), dbgen.CreateClubParams{
		Name:          name,
		Timezone:      timezone,
		ManagerUserID: managerID,
	})
	if err != nil {
		t.Fatalf("insert club %s: %v", name, err)
	}
	return club
}

// Fixture is a club with a manager and two members.
type Fixture struct {
	DB      *db.DB
	Club    dbgen.Club
	Manager dbgen.User
	Alice   dbgen.User
	Bob     dbgen.User
}

// NewFixture creates a fresh database seeded with a club in the given timezone.
func NewFixture(t *testing.T, timezone string) Fixture {
	t.Helper()

	database := NewTestDB(t)
	manager := CreateUser(t, database, "manager", "manager")
	alice := CreateUser(t, database, "alice", "member")
	bob := CreateUser(t, database, "bob", "member")
	club := CreateClub(t, database, "Riverside", timezone, manager.ID)

	return Fixture{
		DB:      database,
		Club:    club,
		Manager: manager,
		Alice:   alice,
		Bob:     bob,
	}
}
