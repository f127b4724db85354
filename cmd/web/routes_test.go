package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/AdamBeresnev/tourney/internal/db"
	"github.com/AdamBeresnev/tourney/internal/realtime"
	"github.com/AdamBeresnev/tourney/internal/service"
	users "github.com/AdamBeresnev/tourney/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClient struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testClient {
	t.Helper()

	database, err := db.OpenMemory("../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{CORSAllowOrigins: []string{"http://localhost:5173"}}
	logger := zap.NewNop()
	app := newApplication(cfg, database, realtime.NewHub(logger, cfg.CORSAllowOrigins), scs.New(), logger)

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, server: server, client: &http.Client{Jar: jar}}
}

func (c *testClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRoutes_RequireSession(t *testing.T) {
	c := newTestServer(t)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/tournaments", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/tournaments", map[string]any{}, nil))

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/guest", nil, nil))
	var tournaments []bracket.Tournament
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/tournaments", nil, &tournaments))
	assert.Empty(t, tournaments)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/tournaments", nil, nil))
}

func TestRoutes_PlayMatch(t *testing.T) {
	c := newTestServer(t)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/guest", nil, nil))

	var created struct{ ID uuid.UUID }
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/tournaments", service.CreateTournamentInput{
		Name:         "Club Open",
		Format:       bracket.SingleElimination,
		Participants: []string{"Ana", "Ben", "Cleo", "Dev"},
	}, &created))

	var data service.TournamentData
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/tournaments/"+created.ID.String(), nil, &data))
	assert.Len(t, data.Participants, 4)
	assert.Len(t, data.Matches, 3)
	require.NotNil(t, data.NextMatchID)

	matchPath := "/api/matches/" + data.NextMatchID.String()
	var view service.MatchData
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, matchPath, nil, &view))
	require.NotNil(t, view.Participant1)
	winner := view.Participant1.ID

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, matchPath+"/result", map[string]any{"winner_id": winner}, nil),
		"a result needs the match started")
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, matchPath+"/start", nil, nil))

	var result service.MatchResult
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, matchPath+"/result", map[string]any{"winner_id": winner}, &result))
	assert.Equal(t, bracket.MatchCompleted, result.Match.Status)
	require.NotNil(t, result.Progression)
	require.Len(t, result.Progression.Updated, 1)
	assert.True(t, result.Progression.Updated[0].Involves(winner))

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, matchPath+"/result", map[string]any{"winner_id": winner}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodPost, "/api/matches/"+result.Progression.Updated[0].ID.String()+"/start", nil, nil))

	var validation validationResponse
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/tournaments/"+created.ID.String()+"/validate", nil, &validation))
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Violations)

	var rows []bracket.StandingsRow
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/tournaments/"+created.ID.String()+"/standings", nil, &rows))
	assert.Len(t, rows, 4)
}

func TestRoutes_Errors(t *testing.T) {
	c := newTestServer(t)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/guest", nil, nil))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed id", http.MethodGet, "/api/matches/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown match", http.MethodGet, "/api/matches/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown tournament", http.MethodGet, "/api/tournaments/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown field", http.MethodPost, "/api/tournaments", map[string]any{"nmae": "typo"}, http.StatusBadRequest},
		{"too few participants", http.MethodPost, "/api/tournaments", map[string]any{"name": "Solo", "format": "round_robin", "participants": []string{"A"}}, http.StatusBadRequest},
		{"unknown format", http.MethodPost, "/api/tournaments", map[string]any{"name": "X", "format": "swiss", "participants": []string{"A", "B"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.do(tt.method, tt.path, tt.body, nil))
		})
	}
}

func TestRoutes_RegistrationWorkflow(t *testing.T) {
	c := newTestServer(t)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/guest", nil, nil))

	var draft bracket.Tournament
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/tournaments/drafts", service.DraftInput{
		Name:   "Autumn Ladder",
		Format: bracket.SingleElimination,
	}, &draft))
	assert.Equal(t, bracket.TournamentDraft, draft.Status)
	path := "/api/tournaments/" + draft.ID.String()

	var updated bracket.Tournament
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, path, map[string]any{"max_participants": 8}, &updated))
	assert.Equal(t, 8, updated.MaxParticipants)
	assert.Equal(t, "Autumn Ladder", updated.Name)

	var opened bracket.Tournament
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, path+"/open", nil, &opened))
	assert.Equal(t, bracket.TournamentRegistrationOpen, opened.Status)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, path+"/open", nil, nil))

	var browsed []bracket.Tournament
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/tournaments?status=registration_open", nil, &browsed))
	require.Len(t, browsed, 1)
	assert.Equal(t, draft.ID, browsed[0].ID)

	var registration bracket.Registration
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, path+"/registrations", nil, &registration))
	assert.Equal(t, bracket.RegistrationPending, registration.Status)
	assert.Equal(t, "Guest User", registration.Name)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, path+"/registrations", nil, nil), "one active registration per user")

	var listed []bracket.Registration
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, path+"/registrations?limit=10", nil, &listed))
	require.Len(t, listed, 1)

	var mine []bracket.Registration
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/registrations/my", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, registration.ID, mine[0].ID)

	var confirmed bracket.Registration
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/registrations/"+registration.ID.String()+"/confirm", nil, &confirmed))
	assert.Equal(t, bracket.RegistrationConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	var profile users.Profile
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/me", nil, &profile))
	assert.Equal(t, users.GuestID, profile.ID)
	assert.Equal(t, 1, profile.Activity.OwnedTournaments)
	assert.Equal(t, 1, profile.Activity.ActiveRegistrations)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, path+"/start", nil, nil), "one entrant cannot make a bracket")

	var cancelled bracket.Tournament
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, path, nil, &cancelled))
	assert.Equal(t, bracket.TournamentCancelled, cancelled.Status)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, path+"/registrations", nil, nil))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPatch, path, map[string]any{"name": "Renamed"}, nil))
}

func TestRoutes_MatchListings(t *testing.T) {
	c := newTestServer(t)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/guest", nil, nil))

	var created struct{ ID uuid.UUID }
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/tournaments", service.CreateTournamentInput{
		Name:         "Club Open",
		Format:       bracket.SingleElimination,
		Participants: []string{"Ana", "Ben", "Cleo", "Dev"},
	}, &created))
	path := "/api/tournaments/" + created.ID.String()

	var scheduled []bracket.Match
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, path+"/matches", nil, &scheduled))
	assert.Len(t, scheduled, 3)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/matches/"+scheduled[0].ID.String()+"/start", nil, nil))

	var live []bracket.Match
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/matches/live", nil, &live))
	require.Len(t, live, 1)
	assert.Equal(t, scheduled[0].ID, live[0].ID)

	var running []bracket.Match
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, path+"/matches?status=in_progress", nil, &running))
	assert.Len(t, running, 1)

	// Names typed in by the organiser belong to no account.
	var mine, upcoming []bracket.Match
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/matches/my", nil, &mine))
	assert.Empty(t, mine)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/matches/upcoming", nil, &upcoming))
	assert.Empty(t, upcoming)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown match status", path + "/matches?status=paused", http.StatusBadRequest},
		{"unknown tournament status", "/api/tournaments?status=paused", http.StatusBadRequest},
		{"negative offset", "/api/matches/live?offset=-1", http.StatusBadRequest},
		{"bad limit", "/api/matches/live?limit=ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.do(http.MethodGet, tt.path, nil, nil))
		})
	}
}
