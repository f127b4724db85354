package bracket

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testTournamentID = uuid.MustParse("6b1f8c1e-3f7a-4f5e-9a59-2f1d3c0b7a10")

func makeParticipants(n int) []Participant {
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = Participant{
			ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("participant-%d", i+1))),
			Name: fmt.Sprintf("P%d", i+1),
		}
	}
	return ps
}

func namedParticipants(names ...string) []Participant {
	ps := make([]Participant, len(names))
	for i, name := range names {
		ps[i] = Participant{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name}
	}
	return ps
}

func build(t *testing.T, ps []Participant, format Format) *Result {
	t.Helper()
	res, err := Build(ps, format, Options{TournamentID: testTournamentID})
	require.NoError(t, err)
	return res
}

func findMatch(matches []Match, side BracketSide, round, order int) *Match {
	for i := range matches {
		m := &matches[i]
		if m.BracketSide == side && m.RoundNumber == round && m.MatchOrder == order {
			return m
		}
	}
	return nil
}

func nonByeCount(matches []Match) int {
	count := 0
	for _, m := range matches {
		if !m.IsBye {
			count++
		}
	}
	return count
}

// decide starts a scheduled match and completes it.
func decide(m Match, winnerID uuid.UUID) (Match, error) {
	if m.Status == MatchScheduled {
		started, err := Start(m)
		if err != nil {
			return m, err
		}
		m = started
	}
	return Complete(m, winnerID)
}

// apply merges a progression update into the tournament state the way the
// persistence layer would.
func apply(matches []Match, done Match, update *ProgressionUpdate) []Match {
	pos := make(map[uuid.UUID]int, len(matches))
	for i, m := range matches {
		pos[m.ID] = i
	}
	matches[pos[done.ID]] = done
	for _, m := range update.Updated {
		matches[pos[m.ID]] = m
	}
	return append(matches, update.Created...)
}

func nextPlayable(matches []Match) *Match {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	SortMatches(sorted)
	for _, m := range sorted {
		if !m.IsBye && m.Status == MatchScheduled && m.Ready() {
			return &m
		}
	}
	return nil
}

// playOut decides every match until the tournament completes. pick returns
// the winning slot for a match.
func playOut(t *testing.T, matches []Match, pick func(m Match) int) (uuid.UUID, []Match) {
	t.Helper()

	for guard := 0; guard < 4*len(matches)+8; guard++ {
		next := nextPlayable(matches)
		require.NotNil(t, next, "tournament stalled before a champion was found")

		done, err := decide(*next, *next.Slot(pick(*next)))
		require.NoError(t, err)

		update, err := Advance(done, matches)
		require.NoError(t, err)
		matches = apply(matches, done, update)

		if update.TournamentComplete {
			require.NotNil(t, update.Champion)
			return *update.Champion, matches
		}
	}
	t.Fatal("tournament did not finish")
	return uuid.Nil, nil
}

func lossesByParticipant(matches []Match) map[uuid.UUID]int {
	losses := make(map[uuid.UUID]int)
	for _, m := range matches {
		if m.IsBye {
			continue
		}
		if l := m.Loser(); l != nil {
			losses[*l]++
		}
	}
	return losses
}
