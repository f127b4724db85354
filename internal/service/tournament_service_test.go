package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament_SingleElimination(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, bracket.SingleElimination, "Ann", "Ben", " ", "Cat", "Dan", "Eve")

	data, err := f.tournaments.GetTournamentData(f.ctx, id.String())
	require.NoError(t, err)

	assert.Equal(t, "Test Tournament", data.Tournament.Name)
	assert.Equal(t, bracket.TournamentInProgress, data.Tournament.Status)
	assert.Equal(t, bracket.DefaultBestOfSets, data.Tournament.BestOfSets)
	assert.Equal(t, bracket.DefaultTiebreakGames, data.Tournament.TiebreakGames)

	require.Len(t, data.Participants, 5, "blank names are skipped")
	for i, p := range data.Participants {
		assert.Equal(t, i+1, p.Seed)
	}
	assert.Equal(t, "Ann", data.Participants[0].Name)

	require.Len(t, data.Matches, 7)
	require.NotNil(t, data.NextMatchID)
	next, err := f.store.GetMatch(f.ctx, data.NextMatchID.String())
	require.NoError(t, err)
	assert.False(t, next.IsBye)
	assert.True(t, next.Ready())
	assert.Empty(t, data.Byes)

	assert.NoError(t, f.tournaments.Validate(f.ctx, id.String()))

	owned, err := f.tournaments.GetTournamentsForUser(f.ctx)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, id, owned[0].ID)
}

func TestCreateTournament_RoundRobinByes(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, bracket.RoundRobin, "Ann", "Ben", "Cat")

	data, err := f.tournaments.GetTournamentData(f.ctx, id.String())
	require.NoError(t, err)
	assert.Len(t, data.Matches, 3)
	require.Len(t, data.Byes, 3, "one bye per round with an odd field")

	sitting := make(map[string]bool)
	for _, b := range data.Byes {
		for _, p := range data.Participants {
			if p.ID == b.ParticipantID {
				sitting[p.Name] = true
			}
		}
	}
	assert.Len(t, sitting, 3, "everyone sits out exactly once")
}

func TestCreateTournament_RejectsBadInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input CreateTournamentInput
		err   error
	}{
		{"no name", CreateTournamentInput{Format: bracket.RoundRobin, Participants: []string{"a", "b"}}, ErrInvalidInput},
		{"one participant", CreateTournamentInput{Name: "x", Format: bracket.RoundRobin, Participants: []string{"a", " "}}, bracket.ErrInvalidParticipantCount},
		{"over the limit", CreateTournamentInput{Name: "x", Format: bracket.SingleElimination, Participants: []string{"a", "b", "c"}, MaxParticipants: 2}, bracket.ErrInvalidParticipantCount},
		{"unknown format", CreateTournamentInput{Name: "x", Format: "swiss", Participants: []string{"a", "b"}}, bracket.ErrUnsupportedFormat},
		{"even best of", CreateTournamentInput{Name: "x", Format: bracket.RoundRobin, Participants: []string{"a", "b"}, BestOfSets: 2}, ErrInvalidInput},
		{"long participant name", CreateTournamentInput{Name: "x", Format: bracket.RoundRobin, Participants: []string{"a", "012345678901234567890123456789012345678901234567890"}}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tournaments.CreateTournament(f.ctx, tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	owned, err := f.tournaments.GetTournamentsForUser(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, owned, "failed creations leave nothing behind")
}

func TestCreateTournament_SeededShuffleIsReproducible(t *testing.T) {
	f := newFixture(t)
	names := []string{"Ann", "Ben", "Cat", "Dan", "Eve", "Fay"}

	order := func() []string {
		id, err := f.tournaments.CreateTournament(f.ctx, CreateTournamentInput{
			Name:         "Seeded",
			Format:       bracket.DoubleElimination,
			Participants: names,
			RandomSeed:   utils.Ptr(int64(42)),
		})
		require.NoError(t, err)

		var out []string
		for _, p := range f.participants(t, id) {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, order(), order())
}

func TestGetTournamentsForUser_RequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.tournaments.GetTournamentsForUser(context.Background())
	assert.Error(t, err)
}

func TestStandings(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, bracket.RoundRobin, "Ann", "Ben", "Cat", "Dan")
	ps := f.participants(t, id)

	// Ann wins everything, Dan loses everything.
	matches, err := f.store.GetMatches(f.ctx, id.String())
	require.NoError(t, err)
	for _, m := range matches {
		winner := *m.Participant1ID
		for _, p := range ps {
			if m.Involves(p.ID) {
				winner = p.ID
				break
			}
		}
		f.play(t, m.ID, winner)
	}

	rows, err := f.tournaments.Standings(f.ctx, id.String())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, ps[i].ID, row.ParticipantID)
		assert.Equal(t, 3-i, row.MatchesWon)
		assert.Equal(t, i+1, row.Rank)
	}

	data, err := f.tournaments.GetTournamentData(f.ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, data.Tournament.Status)
	assert.Nil(t, data.NextMatchID)
}
