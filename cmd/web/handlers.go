package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", service.ErrInvalidInput)
	}
	return id, nil
}

// pageFrom reads the optional limit and offset query parameters.
func pageFrom(r *http.Request) (store.Page, error) {
	var page store.Page
	for key, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return store.Page{}, fmt.Errorf("%w: invalid %s %q", service.ErrInvalidInput, key, raw)
		}
		*dst = n
	}
	return page, nil
}

// list writes items as a JSON array, never null.
func list[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	httputil.JSON(w, http.StatusOK, items)
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w)
		return
	}
	profile, err := app.users.Profile(r.Context(), userID)
	if err != nil {
		httputil.Error(w, "Failed to get profile", err)
		return
	}
	httputil.JSON(w, http.StatusOK, profile)
}

// listTournaments shows the caller's own tournaments, or every tournament in
// one status when ?status= is given.
func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
		if err != nil {
			httputil.Error(w, "Failed to get tournaments", err)
			return
		}
		list(w, tournaments)
		return
	}

	page, err := pageFrom(r)
	if err != nil {
		httputil.Error(w, "Invalid page", err)
		return
	}
	tournaments, err := app.tournaments.GetTournamentsByStatus(r.Context(), bracket.TournamentStatus(status), page)
	if err != nil {
		httputil.Error(w, "Failed to get tournaments", err)
		return
	}
	list(w, tournaments)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var input service.CreateTournamentInput
	if err := decodeJSON(w, r, &input); err != nil {
		httputil.Error(w, "Invalid tournament", err)
		return
	}

	id, err := app.tournaments.CreateTournament(r.Context(), input)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}

	w.Header().Set("Location", "/api/tournaments/"+id.String())
	httputil.JSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	data, err := app.tournaments.GetTournamentData(r.Context(), id.String())
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	httputil.JSON(w, http.StatusOK, data)
}

func (app *application) getStandings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	rows, err := app.tournaments.Standings(r.Context(), id.String())
	if err != nil {
		httputil.Error(w, "Failed to compute standings", err)
		return
	}
	httputil.JSON(w, http.StatusOK, rows)
}

type validationResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

func (app *application) validateTournament(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}

	resp := validationResponse{Valid: true, Violations: []string{}}
	err = app.tournaments.Validate(r.Context(), id.String())
	var inconsistent *bracket.InconsistentBracketError
	switch {
	case err == nil:
	case errors.As(err, &inconsistent):
		resp.Valid = false
		for _, v := range inconsistent.Violations {
			resp.Violations = append(resp.Violations, v.String())
		}
	default:
		httputil.Error(w, "Failed to validate tournament", err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (app *application) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid match ID", err)
		return
	}
	data, err := app.matches.GetMatchViewData(r.Context(), id.String())
	if err != nil {
		httputil.Error(w, "Failed to get match", err)
		return
	}
	httputil.JSON(w, http.StatusOK, data)
}

// matchAction runs fn for the match in the URL and writes its result.
func (app *application) matchAction(w http.ResponseWriter, r *http.Request, msg string, fn func(ctx context.Context, id uuid.UUID) (*service.MatchResult, error)) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid match ID", err)
		return
	}
	result, err := fn(r.Context(), id)
	if err != nil {
		httputil.Error(w, msg, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

func (app *application) startMatch(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to start match", app.matches.StartMatch)
}

func (app *application) cancelMatch(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to cancel match", app.matches.CancelMatch)
}

type resultRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

func (app *application) submitResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.Error(w, "Invalid result", err)
		return
	}
	app.matchAction(w, r, "Failed to record result", func(ctx context.Context, id uuid.UUID) (*service.MatchResult, error) {
		return app.matches.SubmitResult(ctx, id, req.WinnerID)
	})
}

type forfeitRequest struct {
	ForfeitedBy uuid.UUID `json:"forfeited_by"`
}

func (app *application) forfeitMatch(w http.ResponseWriter, r *http.Request) {
	var req forfeitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.Error(w, "Invalid forfeit", err)
		return
	}
	app.matchAction(w, r, "Failed to record forfeit", func(ctx context.Context, id uuid.UUID) (*service.MatchResult, error) {
		return app.matches.ForfeitMatch(ctx, id, req.ForfeitedBy)
	})
}

type setsRequest struct {
	Sets []service.SetInput `json:"sets"`
}

func (app *application) submitSets(w http.ResponseWriter, r *http.Request) {
	var req setsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.Error(w, "Invalid sets", err)
		return
	}
	app.matchAction(w, r, "Failed to record sets", func(ctx context.Context, id uuid.UUID) (*service.MatchResult, error) {
		return app.matches.SubmitSets(ctx, id, req.Sets)
	})
}

func (app *application) tournamentEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	if _, err := app.tournaments.GetTournamentData(r.Context(), id.String()); err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	app.hub.ServeWS(w, r, service.Room(id))
}

func withProvider(r *http.Request) *http.Request {
	return gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, withProvider(r))
}

func (app *application) completeAuth(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	httputil.JSON(w, http.StatusOK, user)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	httputil.JSON(w, http.StatusOK, user)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
