package main

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/google/uuid"
)

func (app *application) createDraft(w http.ResponseWriter, r *http.Request) {
	var input service.DraftInput
	if err := decodeJSON(w, r, &input); err != nil {
		httputil.Error(w, "Invalid tournament", err)
		return
	}

	tournament, err := app.tournaments.CreateDraft(r.Context(), input)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}

	w.Header().Set("Location", "/api/tournaments/"+tournament.ID.String())
	httputil.JSON(w, http.StatusCreated, tournament)
}

// tournamentAction runs fn for the tournament in the URL and writes the
// updated tournament.
func (app *application) tournamentAction(w http.ResponseWriter, r *http.Request, msg string, fn func(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error)) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	tournament, err := fn(r.Context(), id)
	if err != nil {
		httputil.Error(w, msg, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tournament)
}

func (app *application) updateTournament(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateTournamentInput
	if err := decodeJSON(w, r, &input); err != nil {
		httputil.Error(w, "Invalid tournament", err)
		return
	}
	app.tournamentAction(w, r, "Failed to update tournament", func(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
		return app.tournaments.UpdateTournament(ctx, id, input)
	})
}

func (app *application) openRegistration(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Failed to open registration", app.tournaments.OpenRegistration)
}

func (app *application) closeRegistration(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Failed to close registration", app.tournaments.CloseRegistration)
}

// cancelTournament serves both DELETE and POST .../cancel. Nothing is removed.
func (app *application) cancelTournament(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Failed to cancel tournament", app.tournaments.CancelTournament)
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	var input service.StartInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &input); err != nil {
			httputil.Error(w, "Invalid start", err)
			return
		}
	}
	app.tournamentAction(w, r, "Failed to start tournament", func(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
		return app.tournaments.StartTournament(ctx, id, input)
	})
}

func (app *application) tournamentMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	status := bracket.MatchStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = bracket.MatchScheduled
	}
	matches, err := app.matches.TournamentMatches(r.Context(), id, status)
	if err != nil {
		httputil.Error(w, "Failed to get matches", err)
		return
	}
	list(w, matches)
}

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	var input service.RegisterInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &input); err != nil {
			httputil.Error(w, "Invalid registration", err)
			return
		}
	}

	registration, err := app.tournaments.Register(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, "Failed to register", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, registration)
}

func (app *application) listRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid tournament ID", err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		httputil.Error(w, "Invalid page", err)
		return
	}
	registrations, err := app.tournaments.ListRegistrations(r.Context(), id, page)
	if err != nil {
		httputil.Error(w, "Failed to get registrations", err)
		return
	}
	list(w, registrations)
}

func (app *application) registrationAction(w http.ResponseWriter, r *http.Request, msg string, fn func(ctx context.Context, id uuid.UUID) (*bracket.Registration, error)) {
	id, err := pathID(r)
	if err != nil {
		httputil.Error(w, "Invalid registration ID", err)
		return
	}
	registration, err := fn(r.Context(), id)
	if err != nil {
		httputil.Error(w, msg, err)
		return
	}
	httputil.JSON(w, http.StatusOK, registration)
}

func (app *application) confirmRegistration(w http.ResponseWriter, r *http.Request) {
	app.registrationAction(w, r, "Failed to confirm registration", app.tournaments.ConfirmRegistration)
}

func (app *application) cancelRegistration(w http.ResponseWriter, r *http.Request) {
	app.registrationAction(w, r, "Failed to cancel registration", app.tournaments.CancelRegistration)
}

// paged serves a listing that only needs the caller and a page.
func paged[T any](msg string, fn func(ctx context.Context, page store.Page) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFrom(r)
		if err != nil {
			httputil.Error(w, "Invalid page", err)
			return
		}
		items, err := fn(r.Context(), page)
		if err != nil {
			httputil.Error(w, msg, err)
			return
		}
		list(w, items)
	}
}
