package bracket

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

type Options struct {
	TournamentID uuid.UUID
	// Zero means no ceiling.
	MaxParticipants int
	// Nil keeps the given order as the seeding. Otherwise the participants are
	// shuffled with this seed, so the same seed always yields the same bracket.
	RandomSeed *int64
	BestOfSets int
}

type Bye struct {
	Round         int       `json:"round" yaml:"round"`
	ParticipantID uuid.UUID `json:"participant_id" yaml:"participant_id"`
}

type Result struct {
	Format       Format        `json:"format" yaml:"format"`
	Participants []Participant `json:"participants" yaml:"participants"`
	Matches      []Match       `json:"matches" yaml:"matches"`
	// Round robin only: who sits out each round when the field is odd.
	Byes []Bye `json:"byes,omitempty" yaml:"byes,omitempty"`
}

// Build produces the initial matches for a tournament. It never returns a
// partial result.
func Build(participants []Participant, format Format, opts Options) (*Result, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 participants, got %d", ErrInvalidParticipantCount, n)
	}
	if opts.MaxParticipants > 0 && n > opts.MaxParticipants {
		return nil, fmt.Errorf("%w: %d participants exceed the limit of %d", ErrInvalidParticipantCount, n, opts.MaxParticipants)
	}

	seen := make(map[uuid.UUID]struct{}, n)
	for _, p := range participants {
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	if opts.BestOfSets <= 0 {
		opts.BestOfSets = DefaultBestOfSets
	}

	seeded := seedParticipants(participants, opts)
	result := &Result{Format: format, Participants: seeded}

	switch format {
	case SingleElimination:
		result.Matches = buildElimination(seeded, false, opts)
	case DoubleElimination:
		result.Matches = buildElimination(seeded, true, opts)
	case RoundRobin:
		result.Matches, result.Byes = buildRoundRobin(seeded, opts)
	}

	return result, nil
}

func seedParticipants(participants []Participant, opts Options) []Participant {
	seeded := make([]Participant, len(participants))
	copy(seeded, participants)

	if opts.RandomSeed != nil {
		rng := rand.New(rand.NewPCG(uint64(*opts.RandomSeed), 0))
		rng.Shuffle(len(seeded), func(i, j int) {
			seeded[i], seeded[j] = seeded[j], seeded[i]
		})
	}

	for i := range seeded {
		seeded[i].Seed = i + 1
		seeded[i].TournamentID = opts.TournamentID
	}
	return seeded
}

// MatchID derives a stable match id from its position, so rebuilding the same
// tournament yields the same ids.
func MatchID(tournamentID uuid.UUID, side BracketSide, round, order int) uuid.UUID {
	return uuid.NewSHA1(tournamentID, []byte(fmt.Sprintf("%s/%d/%d", side, round, order)))
}

func newMatch(opts Options, side BracketSide, round, order int) Match {
	return Match{
		ID:           MatchID(opts.TournamentID, side, round, order),
		TournamentID: opts.TournamentID,
		BracketSide:  side,
		RoundNumber:  round,
		MatchOrder:   order,
		Status:       MatchScheduled,
		BestOfSets:   opts.BestOfSets,
	}
}
