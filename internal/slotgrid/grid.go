// Package slotgrid builds the deterministic court × slot grid for a sport
// configuration and calendar date.
package slotgrid

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Config is the resource shape of one sport at one club.
type Config struct {
	Courts      int `json:"courts"`
	OpenHour    int `json:"openHour"`
	CloseHour   int `json:"closeHour"`
	SlotMinutes int `json:"slotMinutes"`
}

// Date is a club-local calendar date with no time zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return Date{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Slot is one bookable interval, expressed in minutes since local midnight.
type Slot struct {
	Index       int
	StartMinute int
	EndMinute   int
}

// LocalStart formats the slot start as HH:MM.
func (s Slot) LocalStart() string {
	return formatMinute(s.StartMinute)
}

// LocalEnd formats the slot end as HH:MM; a slot ending at midnight reads 24:00.
func (s Slot) LocalEnd() string {
	return formatMinute(s.EndMinute)
}

// Cell addresses one court in one slot.
type Cell struct {
	SlotIndex  int
	CourtIndex int
}

// Grid is the empty grid for one (config, date).
type Grid struct {
	Config Config
	Date   Date
	Slots  []Slot
}

// SlotCount is floor((close-open)*60 / slotMinutes). A trailing partial slot
// is dropped, never resized.
func SlotCount(cfg Config) int {
	if cfg.SlotMinutes <= 0 || cfg.CloseHour <= cfg.OpenHour {
		return 0
	}
	return (cfg.CloseHour - cfg.OpenHour) * 60 / cfg.SlotMinutes
}

// Generate builds the grid. The same inputs always yield the same slots.
func Generate(cfg Config, date Date) Grid {
	count := SlotCount(cfg)
	slots := make([]Slot, 0, count)
	openMinute := cfg.OpenHour * 60
	for i := 0; i < count; i++ {
		start := openMinute + i*cfg.SlotMinutes
		slots = append(slots, Slot{
			Index:       i,
			StartMinute: start,
			EndMinute:   start + cfg.SlotMinutes,
		})
	}
	return Grid{Config: cfg, Date: date, Slots: slots}
}

// Courts returns the number of courts in the grid, never negative.
func (g Grid) Courts() int {
	if g.Config.Courts < 0 {
		return 0
	}
	return g.Config.Courts
}

// Cells returns the full cross product of slots and courts, slot-major.
func (g Grid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.Slots)*g.Courts())
	for _, slot := range g.Slots {
		for court := 0; court < g.Courts(); court++ {
			cells = append(cells, Cell{SlotIndex: slot.Index, CourtIndex: court})
		}
	}
	return cells
}

// SlotAt returns the slot with the given index.
func (g Grid) SlotAt(index int) (Slot, bool) {
	if index < 0 || index >= len(g.Slots) {
		return Slot{}, false
	}
	return g.Slots[index], true
}

// HasCourt reports whether courtIndex addresses a court of the grid.
func (g Grid) HasCourt(courtIndex int) bool {
	return courtIndex >= 0 && courtIndex < g.Courts()
}

// SlotIndexForTime maps an HH:MM slot start to its index. Times that are not
// exactly a slot boundary do not match.
func (g Grid) SlotIndexForTime(raw string) (int, bool) {
	minute, err := ParseMinute(raw)
	if err != nil {
		return 0, false
	}
	for _, slot := range g.Slots {
		if slot.StartMinute == minute {
			return slot.Index, true
		}
	}
	return 0, false
}

// SlotForInterval finds the slot whose bounds equal [startMinute, endMinute).
func (g Grid) SlotForInterval(startMinute, endMinute int) (Slot, bool) {
	for _, slot := range g.Slots {
		if slot.StartMinute == startMinute && slot.EndMinute == endMinute {
			return slot, true
		}
	}
	return Slot{}, false
}

// ParseMinute parses HH:MM into minutes since midnight.
func ParseMinute(raw string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("time must be in HH:MM format")
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
