// Package sports manages the per-club sport configurations that define the
// shape of the booking grid.
package sports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	appdb "github.com/codr1/Courtbook/internal/db"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
	"github.com/codr1/Courtbook/internal/slotgrid"
	"github.com/codr1/Courtbook/internal/timezone"
)

var (
	ErrInvalidConfig  = errors.New("invalid sport configuration")
	ErrDuplicateSport = errors.New("sport already configured for this club")
	ErrConfigConflict = errors.New("change would invalidate upcoming bookings")
	ErrNotFound       = errors.New("sport configuration not found")
	ErrClubNotFound   = errors.New("club not found")
	ErrTimezoneLocked = errors.New("club timezone is locked while active bookings exist")
)

const maxSportNameLength = 64

// FieldError names the field that failed validation. It matches
// ErrInvalidConfig under errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return ErrInvalidConfig
}

// Input is a create or update request for a sport configuration.
type Input struct {
	Sport       string `json:"sport"`
	Courts      int    `json:"courts"`
	OpenHour    int    `json:"openHour"`
	CloseHour   int    `json:"closeHour"`
	SlotMinutes int    `json:"slotMinutes"`
}

// Normalize trims the sport name.
func (in Input) Normalize() Input {
	in.Sport = strings.TrimSpace(in.Sport)
	return in
}

// Validate checks the numeric ranges a clean grid needs.
func (in Input) Validate() error {
	switch {
	case in.Sport == "":
		return FieldError{Field: "sport", Reason: "is required"}
	case utf8.RuneCountInString(in.Sport) > maxSportNameLength:
		return FieldError{Field: "sport", Reason: fmt.Sprintf("must be at most %d characters", maxSportNameLength)}
	case in.Courts < 1 || in.Courts > 64:
		return FieldError{Field: "courts", Reason: "must be between 1 and 64"}
	case in.OpenHour < 0 || in.OpenHour > 23:
		return FieldError{Field: "openHour", Reason: "must be between 0 and 23"}
	case in.CloseHour < 1 || in.CloseHour > 24:
		return FieldError{Field: "closeHour", Reason: "must be between 1 and 24"}
	case in.CloseHour <= in.OpenHour:
		return FieldError{Field: "closeHour", Reason: "must be after openHour"}
	case in.SlotMinutes < 5 || in.SlotMinutes > 240:
		return FieldError{Field: "slotMinutes", Reason: "must be between 5 and 240"}
	case slotgrid.SlotCount(in.GridConfig()) == 0:
		return FieldError{Field: "slotMinutes", Reason: "must fit at least one slot between openHour and closeHour"}
	}
	return nil
}

// GridConfig converts the input into a grid shape.
func (in Input) GridConfig() slotgrid.Config {
	return slotgrid.Config{
		Courts:      in.Courts,
		OpenHour:    in.OpenHour,
		CloseHour:   in.CloseHour,
		SlotMinutes: in.SlotMinutes,
	}
}

// GridConfig converts a stored configuration into a grid shape.
func GridConfig(sc dbgen.SportConfig) slotgrid.Config {
	return slotgrid.Config{
		Courts:      int(sc.Courts),
		OpenHour:    int(sc.OpenHour),
		CloseHour:   int(sc.CloseHour),
		SlotMinutes: int(sc.SlotMinutes),
	}
}

// Store is the sport configuration store.
type Store struct {
	db *appdb.DB
	tz *timezone.Normalizer
}

func NewStore(database *appdb.DB, normalizer *timezone.Normalizer) *Store {
	if normalizer == nil {
		normalizer = timezone.New(nil)
	}
	return &Store{db: database, tz: normalizer}
}

// Club loads a club or returns ErrClubNotFound.
func (s *Store) Club(ctx context.Context, clubID int64) (dbgen.Club, error) {
	club, err := s.db.Queries.GetClubByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Club{}, ErrClubNotFound
		}
		return dbgen.Club{}, fmt.Errorf("load club %d: %w", clubID, err)
	}
	return club, nil
}

func (s *Store) List(ctx context.Context, clubID int64) ([]dbgen.SportConfig, error) {
	if _, err := s.Club(ctx, clubID); err != nil {
		return nil, err
	}
	configs, err := s.db.Queries.ListSportConfigs(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list sport configs: %w", err)
	}
	if configs == nil {
		configs = []dbgen.SportConfig{}
	}
	return configs, nil
}

// Get looks a configuration up by sport name, ignoring case.
func (s *Store) Get(ctx context.Context, clubID int64, sport string) (dbgen.SportConfig, error) {
	sc, err := s.db.Queries.GetSportConfigByName(ctx, dbgen.GetSportConfigByNameParams{
		ClubID: clubID,
		Sport:  strings.TrimSpace(sport),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.SportConfig{}, ErrNotFound
		}
		return dbgen.SportConfig{}, fmt.Errorf("load sport config: %w", err)
	}
	return sc, nil
}

func (s *Store) Create(ctx context.Context, clubID int64, in Input) (dbgen.SportConfig, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return dbgen.SportConfig{}, err
	}
	if _, err := s.Club(ctx, clubID); err != nil {
		return dbgen.SportConfig{}, err
	}

	now := s.tz.Now()
	created, err := s.db.Queries.CreateSportConfig(ctx, dbgen.CreateSportConfigParams{
		ClubID:      clubID,
		Sport:       in.Sport,
		Courts:      int64(in.Courts),
		OpenHour:    int64(in.OpenHour),
		CloseHour:   int64(in.CloseHour),
		SlotMinutes: int64(in.SlotMinutes),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return dbgen.SportConfig{}, ErrDuplicateSport
		}
		return dbgen.SportConfig{}, fmt.Errorf("create sport config: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("club_id", clubID).
		Int64("sport_config_id", created.ID).
		Str("sport", created.Sport).
		Msg("Sport configuration created")
	return created, nil
}

// Update replaces a configuration. It refuses changes under which an upcoming
// active booking would no longer match a slot of the new grid, and renames
// while upcoming bookings exist, so that no booking is invalidated silently.
func (s *Store) Update(ctx context.Context, clubID, id int64, in Input) (dbgen.SportConfig, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return dbgen.SportConfig{}, err
	}
	club, err := s.Club(ctx, clubID)
	if err != nil {
		return dbgen.SportConfig{}, err
	}
	loc := s.tz.Resolve(ctx, club.Timezone)

	var updated dbgen.SportConfig
	err = s.db.RunInTx(ctx, func(txdb *appdb.DB) error {
		qtx := txdb.Queries

		existing, err := qtx.GetSportConfigByID(ctx, dbgen.GetSportConfigByIDParams{ID: id, ClubID: clubID})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load sport config: %w", err)
		}

		now := s.tz.Now()
		upcoming, err := qtx.ListUpcomingActiveBookingsForSport(ctx, dbgen.ListUpcomingActiveBookingsForSportParams{
			ClubID: clubID,
			Sport:  existing.Sport,
			Now:    now,
		})
		if err != nil {
			return fmt.Errorf("list upcoming bookings: %w", err)
		}
		if len(upcoming) > 0 && !strings.EqualFold(existing.Sport, in.Sport) {
			return fmt.Errorf("%w: %d upcoming bookings reference %q", ErrConfigConflict, len(upcoming), existing.Sport)
		}
		if stranded := strandedBookings(upcoming, in.GridConfig(), loc); stranded > 0 {
			return fmt.Errorf("%w: %d upcoming bookings no longer fit the grid", ErrConfigConflict, stranded)
		}

		updated, err = qtx.UpdateSportConfig(ctx, dbgen.UpdateSportConfigParams{
			Sport:       in.Sport,
			Courts:      int64(in.Courts),
			OpenHour:    int64(in.OpenHour),
			CloseHour:   int64(in.CloseHour),
			SlotMinutes: int64(in.SlotMinutes),
			UpdatedAt:   now,
			ID:          id,
			ClubID:      clubID,
		})
		if err != nil {
			if appdb.IsUniqueViolation(err) {
				return ErrDuplicateSport
			}
			return fmt.Errorf("update sport config: %w", err)
		}
		return nil
	})
	if err != nil {
		return dbgen.SportConfig{}, err
	}

	log.Ctx(ctx).Info().
		Int64("club_id", clubID).
		Int64("sport_config_id", updated.ID).
		Str("sport", updated.Sport).
		Msg("Sport configuration updated")
	return updated, nil
}

// Delete removes a configuration. Bookings that reference the sport stay in
// the ledger as historical records.
func (s *Store) Delete(ctx context.Context, clubID, id int64) error {
	deleted, err := s.db.Queries.DeleteSportConfig(ctx, dbgen.DeleteSportConfigParams{ID: id, ClubID: clubID})
	if err != nil {
		return fmt.Errorf("delete sport config: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	log.Ctx(ctx).Info().
		Int64("club_id", clubID).
		Int64("sport_config_id", id).
		Msg("Sport configuration deleted")
	return nil
}

// SetClubTimezone changes the zone the club's grid is laid out in. The
// database refuses the change while the club has active bookings.
func (s *Store) SetClubTimezone(ctx context.Context, clubID int64, name string) (dbgen.Club, error) {
	name = strings.TrimSpace(name)
	if name == "" || !timezone.Valid(name) {
		return dbgen.Club{}, FieldError{Field: "timezone", Reason: "must be a valid IANA time zone"}
	}
	if _, err := s.Club(ctx, clubID); err != nil {
		return dbgen.Club{}, err
	}
	if _, err := s.db.Queries.UpdateClubTimezone(ctx, dbgen.UpdateClubTimezoneParams{Timezone: name, ID: clubID}); err != nil {
		if appdb.IsTriggerAbort(err) {
			return dbgen.Club{}, ErrTimezoneLocked
		}
		return dbgen.Club{}, fmt.Errorf("update club timezone: %w", err)
	}
	log.Ctx(ctx).Info().
		Int64("club_id", clubID).
		Str("timezone", name).
		Msg("Club timezone updated")
	return s.Club(ctx, clubID)
}

// strandedBookings counts bookings whose court or wall-clock interval has no
// exact counterpart in the grid produced by cfg.
func strandedBookings(bookings []dbgen.Booking, cfg slotgrid.Config, loc *time.Location) int {
	stranded := 0
	for _, b := range bookings {
		localStart := b.SlotStartUtc.In(loc)
		grid := slotgrid.Generate(cfg, slotgrid.DateOf(localStart))
		startMinute := localStart.Hour()*60 + localStart.Minute()
		endMinute := startMinute + int(b.SlotEndUtc.Sub(b.SlotStartUtc)/time.Minute)
		if !grid.HasCourt(int(b.CourtIndex)) {
			stranded++
			continue
		}
		if _, ok := grid.SlotForInterval(startMinute, endMinute); !ok {
			stranded++
		}
	}
	return stranded
}
