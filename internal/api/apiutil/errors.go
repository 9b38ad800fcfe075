package apiutil

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/api/authz"
	"github.com/codr1/Courtbook/internal/booking"
	"github.com/codr1/Courtbook/internal/sports"
)

const (
	CodeSlotTaken          = "slot_taken"
	CodeSlotInPast         = "slot_in_past"
	CodeOwnerLimitExceeded = "owner_limit_exceeded"
	CodeUnknownUser        = "unknown_user"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInvalidConfig      = "invalid_config"
	CodeConfigConflict     = "config_conflict"
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeStoreBusy          = "store_busy"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// storeBusyRetryAfter is the Retry-After hint sent with store_busy.
const storeBusyRetryAfter = time.Second

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// RateLimitedError is returned to clients that exceeded a booking rate limit.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return "too many booking attempts, try again later"
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{booking.ErrSlotTaken, http.StatusConflict, CodeSlotTaken, "That slot has already been booked"},
	{booking.ErrSlotInPast, http.StatusUnprocessableEntity, CodeSlotInPast, "That slot has already started"},
	{booking.ErrOwnerLimitExceeded, http.StatusForbidden, CodeOwnerLimitExceeded, "You already hold an upcoming booking"},
	{booking.ErrUnknownUser, http.StatusNotFound, CodeUnknownUser, "No user with that username"},
	{booking.ErrForbidden, http.StatusForbidden, CodeForbidden, "You are not allowed to do that"},
	{booking.ErrInvalidSlot, http.StatusBadRequest, CodeBadRequest, "That slot or court does not exist"},
	{booking.ErrStoreBusy, http.StatusServiceUnavailable, CodeStoreBusy, "The booking store is busy, try again shortly"},
	{booking.ErrNotFound, http.StatusNotFound, CodeNotFound, ""},
	{sports.ErrInvalidConfig, http.StatusBadRequest, CodeInvalidConfig, ""},
	{sports.ErrDuplicateSport, http.StatusConflict, CodeConfigConflict, "That sport is already configured for this club"},
	{sports.ErrConfigConflict, http.StatusConflict, CodeConfigConflict, ""},
	{sports.ErrTimezoneLocked, http.StatusConflict, CodeConfigConflict, "The club timezone cannot change while active bookings exist"},
	{sports.ErrNotFound, http.StatusNotFound, CodeNotFound, "Sport configuration not found"},
	{sports.ErrClubNotFound, http.StatusNotFound, CodeNotFound, "Club not found"},
	{authz.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized, "Authentication required"},
	{authz.ErrForbidden, http.StatusForbidden, CodeForbidden, "You are not allowed to do that"},
}

// WriteError maps err to a status and error code and writes the JSON error
// body. Unmapped errors are logged and reported as internal.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())
	status, body := Classify(err)

	var limited RateLimitedError
	switch {
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", retryAfterSeconds(limited.RetryAfter))
	case errors.Is(err, booking.ErrStoreBusy):
		w.Header().Set("Retry-After", retryAfterSeconds(storeBusyRetryAfter))
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Str("code", body.Error).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, body); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// Classify returns the status and body WriteError would send for err.
func Classify(err error) (int, ErrorResponse) {
	var limited RateLimitedError
	if errors.As(err, &limited) {
		return http.StatusTooManyRequests, ErrorResponse{Error: CodeRateLimited, Message: limited.Error()}
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		body := ErrorResponse{Error: m.code, Message: m.message}
		if body.Message == "" {
			body.Message = err.Error()
		}
		var fieldErr sports.FieldError
		if errors.As(err, &fieldErr) {
			body.Field = fieldErr.Field
			body.Message = fieldErr.Error()
		}
		return m.status, body
	}

	var herr HandlerError
	if errors.As(err, &herr) {
		return herr.Status, ErrorResponse{Error: codeForStatus(herr.Status), Message: herr.Message}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: CodeInternal, Message: "Internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeStoreBusy
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return CodeBadRequest
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
