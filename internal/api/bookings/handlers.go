// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/api/apiutil"
	"github.com/codr1/Courtbook/internal/api/authz"
	"github.com/codr1/Courtbook/internal/booking"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
	"github.com/codr1/Courtbook/internal/slotgrid"
)

var (
	service     *booking.Service
	serviceOnce sync.Once
)

const bookingRequestTimeout = 10 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

type bookRequest struct {
	ClubID     int64  `json:"clubId"`
	Sport      string `json:"sport"`
	CourtIndex *int   `json:"courtIndex"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	SlotIndex  *int   `json:"slotIndex,omitempty"`
	AsUsername string `json:"asUsername,omitempty"`
}

type cancelRequest struct {
	BookingID int64 `json:"bookingId"`
}

// BookingResponse is the public view of one ledger row.
type BookingResponse struct {
	ID              int64      `json:"id"`
	ClubID          int64      `json:"clubId"`
	Sport           string     `json:"sport"`
	Date            string     `json:"date"`
	CourtIndex      int64      `json:"courtIndex"`
	SlotIndex       int64      `json:"slotIndex"`
	SlotStartUTC    time.Time  `json:"slotStartUtc"`
	SlotEndUTC      time.Time  `json:"slotEndUtc"`
	OwnerUserID     int64      `json:"ownerUserId"`
	CreatedByUserID int64      `json:"createdByUserId"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy     *int64     `json:"cancelledByUserId,omitempty"`
}

func newBookingResponse(b dbgen.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		ClubID:          b.ClubID,
		Sport:           b.Sport,
		Date:            b.BookingDate,
		CourtIndex:      b.CourtIndex,
		SlotIndex:       b.SlotIndex,
		SlotStartUTC:    b.SlotStartUtc.UTC(),
		SlotEndUTC:      b.SlotEndUtc.UTC(),
		OwnerUserID:     b.OwnerUserID,
		CreatedByUserID: b.CreatedByUserID,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt.UTC(),
	}
	if b.CancelledAt.Valid {
		at := b.CancelledAt.Time.UTC()
		resp.CancelledAt = &at
	}
	if b.CancelledByUserID.Valid {
		by := b.CancelledByUserID.Int64
		resp.CancelledBy = &by
	}
	return resp
}

// GET /availability?clubId=&sport=&date=
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, r, errors.New("booking service not initialized"))
		return
	}

	clubRaw, err := apiutil.RequiredQuery(r, "clubId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	clubID, err := apiutil.ParsePositiveInt64Field(clubRaw, "clubId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	sport, err := apiutil.RequiredQuery(r, "sport")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	dateRaw, err := apiutil.RequiredQuery(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	date, err := slotgrid.ParseDate(dateRaw)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	view, err := svc.Availability(ctx, clubID, sport, date, authz.UserFromContext(r.Context()))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, view); err != nil {
		logger.Error().Err(err).Int64("club_id", clubID).Msg("Failed to write availability response")
	}
}

// POST /book
func HandleBook(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, r, errors.New("booking service not initialized"))
		return
	}

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req bookRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	reserve, err := req.toReserveRequest(user)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	created, err := svc.Reserve(ctx, reserve)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, newBookingResponse(created)); err != nil {
		logger.Error().Err(err).Int64("booking_id", created.ID).Msg("Failed to write booking response")
	}
}

// POST /cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, r, errors.New("booking service not initialized"))
		return
	}

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req cancelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if req.BookingID <= 0 {
		apiutil.WriteError(w, r, apiutil.BadRequest(errors.New("bookingId must be a positive integer")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	cancelled, err := svc.Cancel(ctx, req.BookingID, user)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, newBookingResponse(cancelled)); err != nil {
		logger.Error().Err(err).Int64("booking_id", cancelled.ID).Msg("Failed to write cancel response")
	}
}

func (req bookRequest) toReserveRequest(user *authz.AuthUser) (booking.ReserveRequest, error) {
	if req.ClubID <= 0 {
		return booking.ReserveRequest{}, errors.New("clubId must be a positive integer")
	}
	sport := strings.TrimSpace(req.Sport)
	if sport == "" {
		return booking.ReserveRequest{}, errors.New("sport is required")
	}
	if req.CourtIndex == nil {
		return booking.ReserveRequest{}, errors.New("courtIndex is required")
	}
	date, err := slotgrid.ParseDate(req.Date)
	if err != nil {
		return booking.ReserveRequest{}, err
	}

	reserve := booking.ReserveRequest{
		ClubID:     req.ClubID,
		Sport:      sport,
		Date:       date,
		CourtIndex: *req.CourtIndex,
		Time:       strings.TrimSpace(req.Time),
		Requester:  user,
		OnBehalfOf: strings.TrimSpace(req.AsUsername),
	}
	switch {
	case reserve.Time != "":
		if _, err := slotgrid.ParseMinute(reserve.Time); err != nil {
			return booking.ReserveRequest{}, err
		}
	case req.SlotIndex != nil:
		reserve.SlotIndex = *req.SlotIndex
	default:
		return booking.ReserveRequest{}, errors.New("time is required")
	}
	return reserve, nil
}

func loadService() *booking.Service {
	return service
}
