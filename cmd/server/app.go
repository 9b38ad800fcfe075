// cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/booking"
	"github.com/codr1/Courtbook/internal/config"
	"github.com/codr1/Courtbook/internal/db"
	"github.com/codr1/Courtbook/internal/email"
	"github.com/codr1/Courtbook/internal/events"
	"github.com/codr1/Courtbook/internal/ratelimit"
	"github.com/codr1/Courtbook/internal/scheduler"
	"github.com/codr1/Courtbook/internal/sports"
	"github.com/codr1/Courtbook/internal/timezone"
)

// app holds the long-lived dependencies shared by the HTTP handlers.
type app struct {
	db        *db.DB
	bookings  *booking.Service
	sports    *sports.Store
	limiter   *ratelimit.Limiter
	scheduler *scheduler.Service
	closers   []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{db: database, closers: []io.Closer{database}}

	normalizer := timezone.New(nil)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		redisPublisher, client, err := events.NewRedisPublisher(ctx, events.Options{
			Addr:          cfg.Events.RedisAddr,
			Password:      cfg.Events.RedisPassword,
			ChannelPrefix: cfg.Events.ChannelPrefix,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		publisher = redisPublisher
		a.closers = append(a.closers, client)
		log.Info().Str("addr", cfg.Events.RedisAddr).Msg("Grid change events enabled")
	} else {
		log.Info().Msg("Grid change events disabled")
	}

	var notifier booking.Notifier
	if cfg.EmailEnabled() {
		sesClient, err := email.NewSESClient(ctx, cfg.Email)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init email: %w", err)
		}
		notifier = email.NewNotifier(sesClient)
		log.Info().Str("sender", cfg.Email.Sender).Msg("Booking notices enabled")
	} else {
		log.Info().Msg("Booking notices disabled")
	}

	a.bookings = booking.NewService(database, normalizer, booking.Options{
		Publisher:      publisher,
		Notifier:       notifier,
		MaxRetries:     cfg.Booking.MaxStoreRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	})
	a.sports = sports.NewStore(database, normalizer)
	a.limiter = ratelimit.New(&ratelimit.Config{
		PerUser: cfg.Booking.AttemptsPerMinute,
		PerIP:   cfg.Booking.IPAttemptsPerMinute,
	})

	sched, err := scheduler.New()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	a.scheduler = sched
	if err := scheduler.RegisterMaintenanceJob(sched, database, cfg.Maintenance.Schedule); err != nil {
		a.Close()
		return nil, fmt.Errorf("register maintenance job: %w", err)
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition. It is safe to
// call more than once.
func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Close()
		a.limiter = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	a.closers = nil
}
