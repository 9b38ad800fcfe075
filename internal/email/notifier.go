package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/booking"
)

const sendTimeout = 5 * time.Second

// Notifier emails booking owners when their bookings are confirmed or
// cancelled. Sends run in the background.
type Notifier struct {
	sender  Sender
	timeout time.Duration
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender, timeout: sendTimeout}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, notice booking.Notice) {
	details := bookingDetails(notice)
	if notice.Owner.Username != "" && strings.EqualFold(notice.Actor, notice.Owner.Username) {
		details.ActingFor = ""
	}
	n.sendAsync(ctx, notice, BuildBookingConfirmation(details))
}

func (n *Notifier) BookingCancelled(ctx context.Context, notice booking.Notice) {
	details := bookingDetails(notice)
	if notice.Owner.Username != "" && strings.EqualFold(notice.Actor, notice.Owner.Username) {
		details.ActingFor = ""
	}
	n.sendAsync(ctx, notice, BuildBookingCancellation(details))
}

func bookingDetails(notice booking.Notice) BookingDetails {
	loc := notice.Location
	if loc == nil {
		loc = time.UTC
	}
	date, timeRange := FormatDateTimeRange(notice.Booking.SlotStartUtc.In(loc), notice.Booking.SlotEndUtc.In(loc))
	return BookingDetails{
		ClubName:  notice.ClubName,
		Sport:     notice.Booking.Sport,
		Date:      date,
		TimeRange: timeRange,
		Court:     notice.Booking.CourtIndex,
		ActingFor: notice.Actor,
	}
}

func (n *Notifier) sendAsync(ctx context.Context, notice booking.Notice, message Message) {
	if n == nil || n.sender == nil {
		return
	}
	if !notice.Owner.Email.Valid {
		return
	}
	recipient := strings.TrimSpace(notice.Owner.Email.String)
	if recipient == "" {
		return
	}

	logger := log.Ctx(ctx)
	go func() {
		sendCtx, cancel := newSendContext(ctx, n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, message.Subject, message.Body); err != nil {
			logger.Error().
				Err(err).
				Int64("booking_id", notice.Booking.ID).
				Int64("user_id", notice.Owner.ID).
				Msg("Failed to send booking notice")
		}
	}()
}
