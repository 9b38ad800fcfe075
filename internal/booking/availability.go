package booking

import (
	"context"
	"time"

	"github.com/codr1/Courtbook/internal/api/authz"
	"github.com/codr1/Courtbook/internal/slotgrid"
	"github.com/codr1/Courtbook/internal/sports"
	"github.com/codr1/Courtbook/internal/timezone"
)

// CourtState is one cell of the availability grid. BookedBy and BookingID are
// only filled for the booking's owner and the club's manager.
type CourtState struct {
	CourtIndex int    `json:"courtIndex"`
	Booked     bool   `json:"booked"`
	Owned      bool   `json:"owned"`
	BookedBy   string `json:"bookedBy,omitempty"`
	BookingID  int64  `json:"bookingId,omitempty"`
}

type SlotView struct {
	SlotIndex    int          `json:"slotIndex"`
	Time         string       `json:"time"`
	EndTime      string       `json:"endTime"`
	SlotStartUTC time.Time    `json:"slotStartUtc"`
	SlotEndUTC   time.Time    `json:"slotEndUtc"`
	IsPast       bool         `json:"isPast"`
	Courts       []CourtState `json:"courts"`
}

// Availability is the grid for one (club, sport, date) with the ledger
// overlaid. Every IsPast flag is computed against ServerNowUTC.
type Availability struct {
	Cfg          slotgrid.Config `json:"cfg"`
	Sport        string          `json:"sport"`
	Date         string          `json:"date"`
	Timezone     string          `json:"timezone"`
	ServerNowUTC time.Time       `json:"serverNowUtc"`
	Slots        []SlotView      `json:"slots"`
}

// Availability builds the grid for date and marks every cell that an active
// booking overlaps in time. Overlap is by interval rather than slot index, so
// bookings made under an earlier configuration still block the cells they
// cover.
func (s *Service) Availability(ctx context.Context, clubID int64, sport string, date slotgrid.Date, viewer *authz.AuthUser) (Availability, error) {
	club, err := loadClub(ctx, s.db.Queries, clubID)
	if err != nil {
		return Availability{}, err
	}
	sc, err := loadSport(ctx, s.db.Queries, club.ID, sport)
	if err != nil {
		return Availability{}, err
	}

	cfg := sports.GridConfig(sc)
	grid := slotgrid.Generate(cfg, date)
	loc := s.tz.Resolve(ctx, club.Timezone)
	now := s.tz.Now()

	view := Availability{
		Cfg:          cfg,
		Sport:        sc.Sport,
		Date:         date.String(),
		Timezone:     loc.String(),
		ServerNowUTC: now,
		Slots:        make([]SlotView, 0, len(grid.Slots)),
	}
	for _, slot := range grid.Slots {
		start := timezone.Instant(loc, date.Year, date.Month, date.Day, slot.StartMinute)
		end := timezone.Instant(loc, date.Year, date.Month, date.Day, slot.EndMinute)
		// Slots that fall into a DST gap cannot be booked on this date.
		if !end.After(start) {
			continue
		}
		courts := make([]CourtState, grid.Courts())
		for i := range courts {
			courts[i].CourtIndex = i
		}
		view.Slots = append(view.Slots, SlotView{
			SlotIndex:    slot.Index,
			Time:         slot.LocalStart(),
			EndTime:      slot.LocalEnd(),
			SlotStartUTC: start,
			SlotEndUTC:   end,
			IsPast:       isPast(start, now),
			Courts:       courts,
		})
	}

	if len(view.Slots) == 0 {
		return view, nil
	}

	windowStart := view.Slots[0].SlotStartUTC
	windowEnd := view.Slots[len(view.Slots)-1].SlotEndUTC
	rows, err := newLedger(s.db.Queries).findActive(ctx, club.ID, sc.Sport, windowStart, windowEnd)
	if err != nil {
		return Availability{}, err
	}

	act := newActor(viewer, club)
	for _, row := range rows {
		court := int(row.CourtIndex)
		if !grid.HasCourt(court) {
			continue
		}
		owned := viewer != nil && row.OwnerUserID == viewer.ID
		for i := range view.Slots {
			sv := &view.Slots[i]
			if !row.SlotStartUtc.Before(sv.SlotEndUTC) || !row.SlotEndUtc.After(sv.SlotStartUTC) {
				continue
			}
			cell := &sv.Courts[court]
			if cell.Booked {
				continue
			}
			cell.Booked = true
			cell.Owned = owned
			if owned || act.manages {
				cell.BookedBy = row.OwnerUsername
				cell.BookingID = row.ID
			}
		}
	}
	return view, nil
}
