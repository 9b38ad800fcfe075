// Package timezone resolves club time zones and converts club-local wall clock
// times into absolute UTC instants.
package timezone

import (
	"context"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone data for hosts without a system zoneinfo

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type resolved struct {
	loc   *time.Location
	valid bool
}

// Normalizer caches loaded locations and owns the server's notion of "now".
type Normalizer struct {
	clock Clock
	cache sync.Map // zone name -> resolved
	group singleflight.Group
}

// New returns a Normalizer reading time from clock (nil uses the system clock).
func New(clock Clock) *Normalizer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Normalizer{clock: clock}
}

// Now returns the current instant in UTC. Every availability response and
// every past-slot decision uses this value, never a client clock.
func (n *Normalizer) Now() time.Time {
	return n.clock.Now().UTC()
}

// Resolve returns the location for an IANA zone name. Unknown or invalid names
// fall back to UTC with a configuration warning; they never fail the caller.
func (n *Normalizer) Resolve(ctx context.Context, name string) *time.Location {
	name = strings.TrimSpace(name)
	if cached, ok := n.cache.Load(name); ok {
		return cached.(resolved).loc
	}

	value, _, _ := n.group.Do(name, func() (interface{}, error) {
		if cached, ok := n.cache.Load(name); ok {
			return cached, nil
		}
		entry := resolved{loc: time.UTC, valid: true}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("timezone", name).
				Msg("Invalid club timezone, falling back to UTC")
			entry.valid = false
		} else {
			entry.loc = loc
		}
		n.cache.Store(name, entry)
		return entry, nil
	})
	return value.(resolved).loc
}

// Valid reports whether name is a loadable IANA zone.
func Valid(name string) bool {
	_, err := time.LoadLocation(strings.TrimSpace(name))
	return err == nil
}

// Instant converts a club-local wall clock, given as a calendar date plus
// minutes since local midnight, to a UTC instant. Minutes past 24:00 roll over
// into the next day; DST gaps resolve the way time.Date does.
func Instant(loc *time.Location, year int, month time.Month, day int, minuteOfDay int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, month, day, 0, minuteOfDay, 0, 0, loc).UTC()
}

// Today returns the calendar date of instant t in loc.
func Today(loc *time.Location, t time.Time) (int, time.Month, int) {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Date()
}
