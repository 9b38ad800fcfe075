// Package booking owns the reservation ledger: slot availability, the
// transactional reserve protocol and cancellation.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/api/authz"
	appdb "github.com/codr1/Courtbook/internal/db"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
	"github.com/codr1/Courtbook/internal/events"
	"github.com/codr1/Courtbook/internal/slotgrid"
	"github.com/codr1/Courtbook/internal/sports"
	"github.com/codr1/Courtbook/internal/timezone"
)

const (
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 25 * time.Millisecond
)

// Notice carries what a booking notice needs to render.
type Notice struct {
	Booking  dbgen.Booking
	Owner    dbgen.User
	Actor    string
	ClubName string
	Location *time.Location
}

// Notifier is told about committed bookings and cancellations. Calls must not
// block the request.
type Notifier interface {
	BookingConfirmed(ctx context.Context, notice Notice)
	BookingCancelled(ctx context.Context, notice Notice)
}

type Options struct {
	Publisher      events.Publisher
	Notifier       Notifier
	MaxRetries     int
	RetryBaseDelay time.Duration
	MemberLimit    int
}

// Service is the conflict arbiter and availability reader.
type Service struct {
	db          *appdb.DB
	tz          *timezone.Normalizer
	publisher   events.Publisher
	notifier    Notifier
	maxRetries  int
	baseDelay   time.Duration
	memberLimit int

	// beforeReserveTx runs between the pre-checks and the transaction; tests
	// use it to interleave configuration changes.
	beforeReserveTx func()
}

func NewService(database *appdb.DB, normalizer *timezone.Normalizer, opts Options) *Service {
	if normalizer == nil {
		normalizer = timezone.New(nil)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = defaultRetryBaseDelay
	}
	if opts.MemberLimit == 0 {
		opts.MemberLimit = DefaultMemberLimit
	}
	return &Service{
		db:          database,
		tz:          normalizer,
		publisher:   opts.Publisher,
		notifier:    opts.Notifier,
		maxRetries:  opts.MaxRetries,
		baseDelay:   opts.RetryBaseDelay,
		memberLimit: opts.MemberLimit,
	}
}

// ReserveRequest identifies one cell of the grid. When Time is set it selects
// the slot by its HH:MM start and SlotIndex is ignored.
type ReserveRequest struct {
	ClubID     int64
	Sport      string
	Date       slotgrid.Date
	CourtIndex int
	SlotIndex  int
	Time       string
	Requester  *authz.AuthUser
	OnBehalfOf string
}

// cellTarget is a reserve request resolved against the club's current grid.
type cellTarget struct {
	club  dbgen.Club
	sport dbgen.SportConfig
	slot  slotgrid.Slot
	start time.Time
	end   time.Time
	loc   *time.Location
}

// Reserve books one cell. Cheap policy checks run first; the transaction then
// re-reads the cell and the member limit under the write lock and inserts.
// The partial unique index decides any race that slips past the re-read.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (dbgen.Booking, error) {
	if req.Requester == nil {
		return dbgen.Booking{}, authz.ErrUnauthenticated
	}

	target, err := s.resolveCell(ctx, s.db.Queries, req)
	if err != nil {
		return dbgen.Booking{}, err
	}

	act := newActor(req.Requester, target.club)
	now := s.tz.Now()
	if err := act.checkNotPast(target.start, now); err != nil {
		return dbgen.Booking{}, err
	}

	owner, err := act.resolveOwner(ctx, s.db.Queries, req.OnBehalfOf)
	if err != nil {
		return dbgen.Booking{}, err
	}
	if err := act.checkOwnerLimit(ctx, newLedger(s.db.Queries), target.club.ID, owner.ID, now, s.memberLimit); err != nil {
		return dbgen.Booking{}, err
	}

	if s.beforeReserveTx != nil {
		s.beforeReserveTx()
	}

	var created dbgen.Booking
	err = s.withRetry(ctx, "reserve", func() error {
		return s.db.RunInTx(ctx, func(txdb *appdb.DB) error {
			l := newLedger(txdb.Queries)

			// The sport configuration may have changed since the pre-checks.
			current, err := s.resolveCell(ctx, txdb.Queries, req)
			if err != nil {
				return err
			}
			if !current.sameCell(target) {
				return fmt.Errorf("%w: sport configuration changed, reload the grid", ErrInvalidSlot)
			}

			taken, err := l.overlapping(ctx, target.club.ID, target.sport.Sport, req.CourtIndex, target.start, target.end)
			if err != nil {
				return err
			}
			if taken > 0 {
				return ErrSlotTaken
			}
			if err := act.checkOwnerLimit(ctx, l, target.club.ID, owner.ID, now, s.memberLimit); err != nil {
				return err
			}

			created, err = l.insert(ctx, dbgen.CreateBookingParams{
				ClubID:          target.club.ID,
				Sport:           target.sport.Sport,
				BookingDate:     req.Date.String(),
				CourtIndex:      int64(req.CourtIndex),
				SlotIndex:       int64(target.slot.Index),
				SlotStartUtc:    target.start,
				SlotEndUtc:      target.end,
				OwnerUserID:     owner.ID,
				CreatedByUserID: req.Requester.ID,
				CreatedAt:       now,
			})
			return err
		})
	})
	if err != nil {
		return dbgen.Booking{}, err
	}

	logger := log.Ctx(ctx)
	if created.OwnerUserID != created.CreatedByUserID {
		logger.Info().
			Str("event", "booking_on_behalf").
			Int64("booking_id", created.ID).
			Int64("club_id", created.ClubID).
			Int64("owner_user_id", created.OwnerUserID).
			Int64("acting_user_id", created.CreatedByUserID).
			Msg("Manager booked on behalf of member")
	} else {
		logger.Info().
			Int64("booking_id", created.ID).
			Int64("club_id", created.ClubID).
			Int64("user_id", created.OwnerUserID).
			Msg("Booking created")
	}

	s.afterCommit(ctx, events.TypeBooked, created, Notice{
		Booking:  created,
		Owner:    owner,
		Actor:    req.Requester.Username,
		ClubName: target.club.Name,
		Location: target.loc,
	})
	return created, nil
}

// Cancel soft-deletes a booking. A second cancel of the same booking reports
// ErrNotFound.
func (s *Service) Cancel(ctx context.Context, bookingID int64, requester *authz.AuthUser) (dbgen.Booking, error) {
	if requester == nil {
		return dbgen.Booking{}, authz.ErrUnauthenticated
	}

	l := newLedger(s.db.Queries)
	existing, err := l.get(ctx, bookingID)
	if err != nil {
		return dbgen.Booking{}, err
	}
	if existing.Status != "active" {
		return dbgen.Booking{}, fmt.Errorf("%w: booking %d is already cancelled", ErrNotFound, bookingID)
	}

	club, err := loadClub(ctx, s.db.Queries, existing.ClubID)
	if err != nil {
		return dbgen.Booking{}, err
	}
	act := newActor(requester, club)
	now := s.tz.Now()
	if err := act.checkCanCancel(existing, now); err != nil {
		return dbgen.Booking{}, err
	}

	err = s.withRetry(ctx, "cancel", func() error {
		return s.db.RunInTx(ctx, func(txdb *appdb.DB) error {
			return newLedger(txdb.Queries).cancel(ctx, bookingID, requester.ID, now)
		})
	})
	if err != nil {
		return dbgen.Booking{}, err
	}

	cancelled, err := l.get(ctx, bookingID)
	if err != nil {
		return dbgen.Booking{}, err
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", cancelled.ID).
		Int64("club_id", cancelled.ClubID).
		Int64("user_id", requester.ID).
		Bool("by_manager", cancelled.OwnerUserID != requester.ID).
		Msg("Booking cancelled")

	notice := Notice{
		Booking:  cancelled,
		Actor:    requester.Username,
		ClubName: club.Name,
		Location: s.tz.Resolve(ctx, club.Timezone),
	}
	if owner, err := s.db.Queries.GetUserByID(ctx, cancelled.OwnerUserID); err == nil {
		notice.Owner = owner
	}
	s.afterCommit(ctx, events.TypeCancelled, cancelled, notice)
	return cancelled, nil
}

// resolveCell maps req onto the club's current grid using q, so the same check
// can run again inside the booking transaction.
func (s *Service) resolveCell(ctx context.Context, q *dbgen.Queries, req ReserveRequest) (cellTarget, error) {
	club, err := loadClub(ctx, q, req.ClubID)
	if err != nil {
		return cellTarget{}, err
	}
	sport, err := loadSport(ctx, q, club.ID, req.Sport)
	if err != nil {
		return cellTarget{}, err
	}

	grid := slotgrid.Generate(sports.GridConfig(sport), req.Date)
	slotIndex := req.SlotIndex
	if strings.TrimSpace(req.Time) != "" {
		index, ok := grid.SlotIndexForTime(req.Time)
		if !ok {
			return cellTarget{}, fmt.Errorf("%w: no slot starts at %s", ErrInvalidSlot, req.Time)
		}
		slotIndex = index
	}
	slot, ok := grid.SlotAt(slotIndex)
	if !ok {
		return cellTarget{}, fmt.Errorf("%w: slot %d", ErrInvalidSlot, slotIndex)
	}
	if !grid.HasCourt(req.CourtIndex) {
		return cellTarget{}, fmt.Errorf("%w: court %d", ErrInvalidSlot, req.CourtIndex)
	}

	loc := s.tz.Resolve(ctx, club.Timezone)
	start := timezone.Instant(loc, req.Date.Year, req.Date.Month, req.Date.Day, slot.StartMinute)
	end := timezone.Instant(loc, req.Date.Year, req.Date.Month, req.Date.Day, slot.EndMinute)
	// A slot inside a DST gap has no real duration on that date.
	if !end.After(start) {
		return cellTarget{}, fmt.Errorf("%w: slot %s-%s does not exist on %s in %s",
			ErrInvalidSlot, slot.LocalStart(), slot.LocalEnd(), req.Date, loc)
	}
	return cellTarget{
		club:  club,
		sport: sport,
		slot:  slot,
		start: start,
		end:   end,
		loc:   loc,
	}, nil
}

// sameCell reports whether two resolutions of a request address the same
// court interval under the same configuration.
func (t cellTarget) sameCell(other cellTarget) bool {
	return t.sport.ID == other.sport.ID &&
		t.sport.Sport == other.sport.Sport &&
		sports.GridConfig(t.sport) == sports.GridConfig(other.sport) &&
		t.slot == other.slot &&
		t.start.Equal(other.start) &&
		t.end.Equal(other.end)
}

func loadClub(ctx context.Context, q *dbgen.Queries, clubID int64) (dbgen.Club, error) {
	club, err := q.GetClubByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Club{}, fmt.Errorf("%w: club %d", ErrNotFound, clubID)
		}
		return dbgen.Club{}, fmt.Errorf("load club %d: %w", clubID, err)
	}
	return club, nil
}

func loadSport(ctx context.Context, q *dbgen.Queries, clubID int64, sport string) (dbgen.SportConfig, error) {
	cfg, err := q.GetSportConfigByName(ctx, dbgen.GetSportConfigByNameParams{
		ClubID: clubID,
		Sport:  strings.TrimSpace(sport),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.SportConfig{}, fmt.Errorf("%w: sport %q", ErrNotFound, sport)
		}
		return dbgen.SportConfig{}, fmt.Errorf("load sport %q: %w", sport, err)
	}
	return cfg, nil
}

// withRetry reruns op while SQLite reports the write lock as busy, doubling the
// delay each time. Exhausted retries surface as ErrStoreBusy.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := s.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !appdb.IsBusy(err) {
			return err
		}
		if attempt >= s.maxRetries {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("op", op).
				Int("attempts", attempt+1).
				Msg("Booking store stayed busy")
			return fmt.Errorf("%w: %v", ErrStoreBusy, err)
		}
		log.Ctx(ctx).Debug().
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Booking store busy, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func (s *Service) afterCommit(ctx context.Context, kind string, b dbgen.Booking, notice Notice) {
	events.PublishQuietly(ctx, s.publisher, events.GridChange{
		Type:       kind,
		ClubID:     b.ClubID,
		Sport:      b.Sport,
		Date:       b.BookingDate,
		CourtIndex: b.CourtIndex,
		SlotIndex:  b.SlotIndex,
		BookingID:  b.ID,
		At:         s.tz.Now(),
	})
	if s.notifier == nil {
		return
	}
	switch kind {
	case events.TypeBooked:
		s.notifier.BookingConfirmed(ctx, notice)
	case events.TypeCancelled:
		s.notifier.BookingCancelled(ctx, notice)
	}
}
