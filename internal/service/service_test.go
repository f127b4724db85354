package service

import (
	"context"
	"sync"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/db"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/store"
	users "github.com/AdamBeresnev/tourney/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.OpenMemory("../../migrations")
	require.NoError(t, err, "Failed to open in-memory DB")
	t.Cleanup(func() { database.Close() })
	return database
}

type event struct {
	room, kind string
	payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) Publish(room, kind string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{room, kind, payload})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.kind
	}
	return kinds
}

type fixture struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	users       *store.UserStore
	tournaments *TournamentService
	matches     *MatchService
	events      *recordingPublisher
	ctx         context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)
	events := &recordingPublisher{}

	return &fixture{
		db:          database,
		store:       tournamentStore,
		users:       userStore,
		tournaments: NewTournamentService(database, tournamentStore, userStore, zap.NewNop()),
		matches:     NewMatchService(database, tournamentStore, events, zap.NewNop()),
		events:      events,
		ctx:         context.WithValue(context.Background(), middleware.UserIDKey, users.GuestID),
	}
}

func (f *fixture) create(t *testing.T, format bracket.Format, names ...string) uuid.UUID {
	t.Helper()

	id, err := f.tournaments.CreateTournament(f.ctx, CreateTournamentInput{
		Name:         "Test Tournament",
		Format:       format,
		Participants: names,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) findMatch(t *testing.T, tournamentID uuid.UUID, side bracket.BracketSide, round, order int) *bracket.Match {
	t.Helper()

	matches, err := f.store.GetMatches(f.ctx, tournamentID.String())
	require.NoError(t, err)
	for _, m := range matches {
		if m.BracketSide == side && m.RoundNumber == round && m.MatchOrder == order {
			return &m
		}
	}
	return nil
}

// signUp creates a user and returns a context acting as them.
func (f *fixture) signUp(t *testing.T, username string) context.Context {
	t.Helper()

	user := &users.User{ID: uuid.New(), Email: username + "@example.com", Username: username}
	tx, err := f.db.BeginTxx(f.ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, f.users.CreateUserTx(f.ctx, tx, user))
	require.NoError(t, tx.Commit())
	return context.WithValue(context.Background(), middleware.UserIDKey, user.ID)
}

// play starts a match and records its winner.
func (f *fixture) play(t *testing.T, matchID, winnerID uuid.UUID) *MatchResult {
	t.Helper()

	_, err := f.matches.StartMatch(f.ctx, matchID)
	require.NoError(t, err)
	res, err := f.matches.SubmitResult(f.ctx, matchID, winnerID)
	require.NoError(t, err)
	return res
}

// participants returns the tournament's participants ordered by seed.
func (f *fixture) participants(t *testing.T, tournamentID uuid.UUID) []bracket.Participant {
	t.Helper()

	ps, err := f.store.GetParticipants(f.ctx, tournamentID.String())
	require.NoError(t, err)
	return ps
}
