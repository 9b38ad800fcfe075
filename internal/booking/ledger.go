package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appdb "github.com/codr1/Courtbook/internal/db"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
)

// ledger wraps the booking queries. It is the only writer of the bookings
// table and is always driven from within the arbiter.
type ledger struct {
	q *dbgen.Queries
}

func newLedger(q *dbgen.Queries) ledger {
	return ledger{q: q}
}

// findActive returns active bookings whose interval overlaps [start, end).
func (l ledger) findActive(ctx context.Context, clubID int64, sport string, start, end time.Time) ([]dbgen.ListActiveBookingsInWindowRow, error) {
	rows, err := l.q.ListActiveBookingsInWindow(ctx, dbgen.ListActiveBookingsInWindowParams{
		ClubID:      clubID,
		Sport:       sport,
		WindowEnd:   end.UTC(),
		WindowStart: start.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return rows, nil
}

func (l ledger) overlapping(ctx context.Context, clubID int64, sport string, courtIndex int, start, end time.Time) (int64, error) {
	count, err := l.q.CountOverlappingActiveBookings(ctx, dbgen.CountOverlappingActiveBookingsParams{
		ClubID:       clubID,
		Sport:        sport,
		CourtIndex:   int64(courtIndex),
		SlotEndUtc:   end.UTC(),
		SlotStartUtc: start.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return count, nil
}

func (l ledger) upcomingForOwner(ctx context.Context, clubID, ownerID int64, now time.Time) (int64, error) {
	count, err := l.q.CountUpcomingActiveBookingsForOwner(ctx, dbgen.CountUpcomingActiveBookingsForOwnerParams{
		ClubID:      clubID,
		OwnerUserID: ownerID,
		Now:         now.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("count upcoming bookings: %w", err)
	}
	return count, nil
}

// insert adds an active booking. Losing the partial unique index race is
// reported as ErrSlotTaken.
func (l ledger) insert(ctx context.Context, params dbgen.CreateBookingParams) (dbgen.Booking, error) {
	created, err := l.q.CreateBooking(ctx, params)
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return dbgen.Booking{}, ErrSlotTaken
		}
		return dbgen.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return created, nil
}

func (l ledger) get(ctx context.Context, id int64) (dbgen.Booking, error) {
	b, err := l.q.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, fmt.Errorf("%w: booking %d", ErrNotFound, id)
		}
		return dbgen.Booking{}, fmt.Errorf("load booking %d: %w", id, err)
	}
	return b, nil
}

// cancel soft-deletes an active booking. A booking that is missing or already
// cancelled yields ErrNotFound and leaves the ledger unchanged.
func (l ledger) cancel(ctx context.Context, id, cancelledBy int64, at time.Time) error {
	rows, err := l.q.CancelBooking(ctx, dbgen.CancelBookingParams{
		CancelledAt:       sql.NullTime{Time: at.UTC(), Valid: true},
		CancelledByUserID: sql.NullInt64{Int64: cancelledBy, Valid: true},
		ID:                id,
	})
	if err != nil {
		return fmt.Errorf("cancel booking %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking %d is not active", ErrNotFound, id)
	}
	return nil
}
