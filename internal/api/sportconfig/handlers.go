// internal/api/sportconfig/handlers.go
package sportconfig

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/api/apiutil"
	"github.com/codr1/Courtbook/internal/api/authz"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
	"github.com/codr1/Courtbook/internal/sports"
)

var (
	store     *sports.Store
	storeOnce sync.Once
)

const sportConfigQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *sports.Store) {
	if s == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
	})
}

type sportConfigsResponse struct {
	ClubID int64               `json:"clubId"`
	Sports []dbgen.SportConfig `json:"sports"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

type clubResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// GET /clubs/{id}/sports
func HandleListSports(w http.ResponseWriter, r *http.Request) {
	s, clubID, ok := prepare(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sportConfigQueryTimeout)
	defer cancel()

	configs, err := s.List(ctx, clubID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, sportConfigsResponse{ClubID: clubID, Sports: configs}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("club_id", clubID).Msg("Failed to write sport configs")
	}
}

// POST /clubs/{id}/sports
func HandleCreateSport(w http.ResponseWriter, r *http.Request) {
	s, clubID, ok := prepare(w, r)
	if !ok {
		return
	}

	var in sports.Input
	if err := apiutil.DecodeJSON(r, &in); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sportConfigQueryTimeout)
	defer cancel()

	if !requireManager(ctx, w, r, s, clubID) {
		return
	}

	created, err := s.Create(ctx, clubID, in)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("club_id", clubID).Msg("Failed to write sport config")
	}
}

// PUT /clubs/{id}/sports/{sportId}
func HandleUpdateSport(w http.ResponseWriter, r *http.Request) {
	s, clubID, ok := prepare(w, r)
	if !ok {
		return
	}
	sportID, err := apiutil.PathID(r, "sportId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	var in sports.Input
	if err := apiutil.DecodeJSON(r, &in); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sportConfigQueryTimeout)
	defer cancel()

	if !requireManager(ctx, w, r, s, clubID) {
		return
	}

	updated, err := s.Update(ctx, clubID, sportID, in)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("sport_config_id", sportID).Msg("Failed to write sport config")
	}
}

// DELETE /clubs/{id}/sports/{sportId}
func HandleDeleteSport(w http.ResponseWriter, r *http.Request) {
	s, clubID, ok := prepare(w, r)
	if !ok {
		return
	}
	sportID, err := apiutil.PathID(r, "sportId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sportConfigQueryTimeout)
	defer cancel()

	if !requireManager(ctx, w, r, s, clubID) {
		return
	}

	if err := s.Delete(ctx, clubID, sportID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /clubs/{id}/timezone
func HandleSetTimezone(w http.ResponseWriter, r *http.Request) {
	s, clubID, ok := prepare(w, r)
	if !ok {
		return
	}

	var req timezoneRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sportConfigQueryTimeout)
	defer cancel()

	if !requireManager(ctx, w, r, s, clubID) {
		return
	}

	club, err := s.SetClubTimezone(ctx, clubID, req.Timezone)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	resp := clubResponse{ID: club.ID, Name: club.Name, Timezone: club.Timezone}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("club_id", clubID).Msg("Failed to write club")
	}
}

func prepare(w http.ResponseWriter, r *http.Request) (*sports.Store, int64, bool) {
	s := loadStore()
	if s == nil {
		log.Ctx(r.Context()).Error().Msg("Sport config store not initialized")
		apiutil.WriteError(w, r, errors.New("sport config store not initialized"))
		return nil, 0, false
	}
	clubID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return nil, 0, false
	}
	return s, clubID, true
}

// requireManager loads the club and checks that the caller manages it.
func requireManager(ctx context.Context, w http.ResponseWriter, r *http.Request, s *sports.Store, clubID int64) bool {
	club, err := s.Club(ctx, clubID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return false
	}
	err = authz.RequireClubManager(r.Context(), authz.ClubAccess{ID: club.ID, ManagerUserID: club.ManagerUserID})
	if err != nil {
		logEvent := log.Ctx(r.Context()).Warn().Int64("club_id", clubID)
		if user := authz.UserFromContext(r.Context()); user != nil {
			logEvent = logEvent.Int64("user_id", user.ID)
		}
		logEvent.Err(err).Msg("Sport configuration access denied")
		apiutil.WriteError(w, r, err)
		return false
	}
	return true
}

func loadStore() *sports.Store {
	return store
}
