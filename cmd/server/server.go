// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/Courtbook/internal/api"
	"github.com/codr1/Courtbook/internal/api/bookings"
	"github.com/codr1/Courtbook/internal/api/sportconfig"
	"github.com/codr1/Courtbook/internal/config"
)

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain; the last listed runs first.
	handler := api.ChainMiddleware(
		router,
		api.WithUpstreamUser(a.db.Queries),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	bookings.InitHandlers(a.bookings)
	sportconfig.InitHandlers(a.sports)
	registerRoutes(router, a, cfg.Booking.TrustProxy)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, a *app, trustProxy bool) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /availability", bookings.HandleAvailability)
	mux.Handle("POST /book", api.ChainMiddleware(
		http.HandlerFunc(bookings.HandleBook),
		api.WithRateLimit(a.limiter, "book", trustProxy),
	))
	mux.Handle("POST /cancel", api.ChainMiddleware(
		http.HandlerFunc(bookings.HandleCancel),
		api.WithRateLimit(a.limiter, "cancel", trustProxy),
	))

	// Sport configuration routes
	mux.HandleFunc("GET /clubs/{id}/sports", sportconfig.HandleListSports)
	mux.HandleFunc("POST /clubs/{id}/sports", sportconfig.HandleCreateSport)
	mux.HandleFunc("PUT /clubs/{id}/sports/{sportId}", sportconfig.HandleUpdateSport)
	mux.HandleFunc("DELETE /clubs/{id}/sports/{sportId}", sportconfig.HandleDeleteSport)
	mux.HandleFunc("PUT /clubs/{id}/timezone", sportconfig.HandleSetTimezone)
}
