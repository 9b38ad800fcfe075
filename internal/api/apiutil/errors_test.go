package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codr1/Courtbook/internal/api/authz"
	"github.com/codr1/Courtbook/internal/booking"
	"github.com/codr1/Courtbook/internal/sports"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"slot taken", fmt.Errorf("reserve: %w", booking.ErrSlotTaken), http.StatusConflict, CodeSlotTaken},
		{"slot in past", booking.ErrSlotInPast, http.StatusUnprocessableEntity, CodeSlotInPast},
		{"owner limit", booking.OwnerLimitError{CurrentCount: 1, Limit: 1}, http.StatusForbidden, CodeOwnerLimitExceeded},
		{"unknown user", booking.ErrUnknownUser, http.StatusNotFound, CodeUnknownUser},
		{"forbidden", booking.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"not found", booking.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"invalid slot", booking.ErrInvalidSlot, http.StatusBadRequest, CodeBadRequest},
		{"store busy", booking.ErrStoreBusy, http.StatusServiceUnavailable, CodeStoreBusy},
		{"invalid config", sports.FieldError{Field: "courts", Reason: "must be between 1 and 64"}, http.StatusBadRequest, CodeInvalidConfig},
		{"duplicate sport", sports.ErrDuplicateSport, http.StatusConflict, CodeConfigConflict},
		{"config conflict", sports.ErrConfigConflict, http.StatusConflict, CodeConfigConflict},
		{"unauthenticated", authz.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized},
		{"authz forbidden", authz.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"rate limited", RateLimitedError{RetryAfter: time.Second}, http.StatusTooManyRequests, CodeRateLimited},
		{"handler error", HandlerError{Status: http.StatusBadRequest, Message: "date is required"}, http.StatusBadRequest, CodeBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Classify(tt.err)
			if status != tt.status || body.Error != tt.code {
				t.Fatalf("got %d %s, want %d %s", status, body.Error, tt.status, tt.code)
			}
			if body.Message == "" {
				t.Fatalf("expected a message")
			}
		})
	}
}

func TestWriteErrorSetsRetryAfter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"store busy", booking.ErrStoreBusy, "1"},
		{"rate limited", RateLimitedError{RetryAfter: 2500 * time.Millisecond}, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/book", nil)
			rec := httptest.NewRecorder()
			WriteError(rec, req, tt.err)

			if got := rec.Header().Get("Retry-After"); got != tt.want {
				t.Fatalf("Retry-After = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteErrorFieldError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/clubs/1/sports", nil)
	rec := httptest.NewRecorder()
	WriteError(rec, req, sports.FieldError{Field: "slotMinutes", Reason: "must be between 5 and 240"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "slotMinutes" || body.Error != CodeInvalidConfig {
		t.Fatalf("unexpected body %+v", body)
	}
}
