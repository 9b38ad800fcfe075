package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/codr1/Courtbook/internal/api/bookings"
	"github.com/codr1/Courtbook/internal/config"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
)

// Handler packages keep their dependencies in package state, so every test in
// this file shares one app.
var (
	testAppOnce sync.Once
	testApp     *app
	testHandler http.Handler
	testAppErr  error
	testDir     string
)

func loadTestServer(t *testing.T) (*app, http.Handler) {
	t.Helper()

	testAppOnce.Do(func() {
		dir, err := os.MkdirTemp("", "courtbook-server")
		if err != nil {
			testAppErr = err
			return
		}
		cfg, err := config.Parse([]byte(fmt.Sprintf(`app:
  name: "Courtbook"
  environment: "test"
  port: 8080
database:
  driver: "sqlite"
  filename: "%s"
booking:
  attempts_per_minute: 3
`, filepath.ToSlash(filepath.Join(dir, "server.db")))))
		if err != nil {
			testAppErr = err
			return
		}
		testDir = dir
		testApp, testAppErr = newApp(context.Background(), cfg)
		if testAppErr != nil {
			return
		}
		testHandler = newServer(cfg, testApp).Handler
	})
	if testAppErr != nil {
		t.Fatalf("init app: %v", testAppErr)
	}
	return testApp, testHandler
}

func request(t *testing.T, handler http.Handler, method, path string, userID int64, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestServerEndToEnd(t *testing.T) {
	a, handler := loadTestServer(t)
	ctx := context.Background()

	manager, err := a.db.Queries.CreateUser(ctx, dbgen.CreateUserParams{Username: "coach", Role: "manager"})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	member, err := a.db.Queries.CreateUser(ctx, dbgen.CreateUserParams{Username: "player", Role: "member"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	club, err := a.db.Queries.CreateClub(ctx, dbgen.CreateClubParams{Name: "Hilltop", Timezone: "UTC", ManagerUserID: manager.ID})
	if err != nil {
		t.Fatalf("create club: %v", err)
	}

	health := request(t, handler, http.MethodGet, "/health", 0, nil)
	if health.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", health.Code)
	}
	if health.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}

	create := request(t, handler, http.MethodPost, fmt.Sprintf("/clubs/%d/sports", club.ID), manager.ID, map[string]any{
		"sport": "padel", "courts": 2, "openHour": 0, "closeHour": 24, "slotMinutes": 60,
	})
	if create.Code != http.StatusCreated {
		t.Fatalf("create sport: expected 201, got %d: %s", create.Code, create.Body.String())
	}

	book := map[string]any{
		"clubId": club.ID, "sport": "padel", "courtIndex": 0, "date": "2099-06-01", "time": "10:00",
	}
	first := request(t, handler, http.MethodPost, "/book", member.ID, book)
	if first.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", first.Code, first.Body.String())
	}
	var created bookings.BookingResponse
	if err := json.NewDecoder(first.Body).Decode(&created); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	availability := request(t, handler, http.MethodGet,
		fmt.Sprintf("/availability?clubId=%d&sport=padel&date=2099-06-01", club.ID), member.ID, nil)
	if availability.Code != http.StatusOK {
		t.Fatalf("availability: expected 200, got %d", availability.Code)
	}

	anonymous := request(t, handler, http.MethodPost, "/book", 0, book)
	if anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous book: expected 401, got %d", anonymous.Code)
	}

	unknown := request(t, handler, http.MethodPost, "/book", 999999, book)
	if unknown.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user header: expected 401, got %d", unknown.Code)
	}

	cancel := request(t, handler, http.MethodPost, "/cancel", member.ID, map[string]any{"bookingId": created.ID})
	if cancel.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", cancel.Code, cancel.Body.String())
	}

	// Three attempts per minute per user: book and cancel above used two.
	if rec := request(t, handler, http.MethodPost, "/book", member.ID, book); rec.Code != http.StatusCreated {
		t.Fatalf("rebook: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	limited := request(t, handler, http.MethodPost, "/cancel", member.ID, map[string]any{"bookingId": created.ID})
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", limited.Code)
	}
	if limited.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	if testApp != nil {
		testApp.Close()
	}
	if testDir != "" {
		_ = os.RemoveAll(testDir)
	}
	os.Exit(code)
}
