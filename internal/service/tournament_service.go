package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxNameLength = 50

type TournamentService struct {
	db     *sqlx.DB
	store  *store.TournamentStore
	users  *store.UserStore
	locks  *tournamentLocks
	logger *zap.Logger
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, users *store.UserStore, logger *zap.Logger) *TournamentService {
	return &TournamentService{
		db:     db,
		store:  store,
		users:  users,
		locks:  newTournamentLocks(),
		logger: logger.Named("tournaments"),
	}
}

type CreateTournamentInput struct {
	Name         string         `json:"name"`
	Format       bracket.Format `json:"format"`
	Participants []string       `json:"participants"`
	// Zero values fall back to the bracket defaults.
	MaxParticipants int    `json:"max_participants"`
	BestOfSets      int    `json:"best_of_sets"`
	TiebreakGames   int    `json:"tiebreak_games"`
	RandomSeed      *int64 `json:"random_seed,omitempty"`
}

func (in *CreateTournamentInput) normalize() error {
	name, err := tournamentName(in.Name)
	if err != nil {
		return err
	}
	in.Name = name

	names := make([]string, 0, len(in.Participants))
	for _, name := range in.Participants {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > maxNameLength {
			return fmt.Errorf("%w: participant name '%s' exceeds %d characters", ErrInvalidInput, name, maxNameLength)
		}
		names = append(names, name)
	}
	in.Participants = names

	in.MaxParticipants, in.BestOfSets, in.TiebreakGames, err = settings(in.MaxParticipants, in.BestOfSets, in.TiebreakGames)
	return err
}

func tournamentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: tournament name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}
	return name, nil
}

// settings applies the bracket defaults to zero values.
func settings(maxParticipants, bestOfSets, tiebreakGames int) (int, int, int, error) {
	if maxParticipants <= 0 {
		maxParticipants = bracket.DefaultMaxParticipants
	}
	if maxParticipants < 2 {
		return 0, 0, 0, fmt.Errorf("%w: max_participants must be at least 2", ErrInvalidInput)
	}
	if bestOfSets <= 0 {
		bestOfSets = bracket.DefaultBestOfSets
	}
	if bestOfSets%2 == 0 {
		return 0, 0, 0, fmt.Errorf("%w: best_of_sets must be odd, got %d", ErrInvalidInput, bestOfSets)
	}
	if tiebreakGames <= 0 {
		tiebreakGames = bracket.DefaultTiebreakGames
	}
	return maxParticipants, bestOfSets, tiebreakGames, nil
}

type TournamentData struct {
	Tournament   *bracket.Tournament   `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
	Matches      []bracket.Match       `json:"matches"`
	Sets         []bracket.Set         `json:"sets"`
	Byes         []bracket.Bye         `json:"byes,omitempty"`
	Rounds       []bracket.Round       `json:"rounds"`
	NextMatchID  *uuid.UUID            `json:"next_match_id,omitempty"`
}

// CreateTournament builds the bracket and stores the tournament, its
// participants and all initial matches in one transaction.
func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (uuid.UUID, error) {
	if err := input.normalize(); err != nil {
		return uuid.Nil, err
	}

	tournamentID := uuid.New()
	participants := make([]bracket.Participant, len(input.Participants))
	for i, name := range input.Participants {
		participants[i] = bracket.Participant{ID: uuid.New(), Name: name}
	}

	result, err := bracket.Build(participants, input.Format, bracket.Options{
		TournamentID:    tournamentID,
		MaxParticipants: input.MaxParticipants,
		RandomSeed:      input.RandomSeed,
		BestOfSets:      input.BestOfSets,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if err := bracket.Validate(result.Matches); err != nil {
		return uuid.Nil, fmt.Errorf("generated bracket is invalid: %w", err)
	}

	ownerID, _ := middleware.GetUserIDFromContext(ctx)
	tournament := bracket.Tournament{
		ID:              tournamentID,
		OwnerID:         ownerID,
		Name:            input.Name,
		Status:          bracket.TournamentInProgress,
		Format:          input.Format,
		MaxParticipants: input.MaxParticipants,
		BestOfSets:      input.BestOfSets,
		TiebreakGames:   input.TiebreakGames,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := s.store.CreateParticipants(ctx, tx, result.Participants); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create participants: %w", err)
	}
	if err := s.store.CreateMatches(ctx, tx, result.Matches); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create matches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("tournament created",
		zap.String("tournament_id", tournamentID.String()),
		zap.String("format", string(input.Format)),
		zap.Int("participants", len(participants)),
		zap.Int("matches", len(result.Matches)),
	)
	return tournamentID, nil
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.store.GetParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	sets, err := s.store.GetSets(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TournamentData{
		Tournament:   tournament,
		Participants: participants,
		Matches:      matches,
		Sets:         sets,
		Byes:         roundRobinByes(participants, matches),
		Rounds:       bracket.Layout(matches),
		NextMatchID:  nextMatchID(matches),
	}, nil
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]bracket.Tournament, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.store.GetTournamentsByOwner(ctx, userID)
}

// GetTournamentsByStatus browses every tournament in one status, for example
// the ones open for registration.
func (s *TournamentService) GetTournamentsByStatus(ctx context.Context, status bracket.TournamentStatus, page store.Page) ([]bracket.Tournament, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown tournament status %q", ErrInvalidInput, status)
	}
	return s.store.GetTournamentsByStatus(ctx, status, page)
}

// Standings ranks every participant from the decided matches so far.
func (s *TournamentService) Standings(ctx context.Context, id string) ([]bracket.StandingsRow, error) {
	data, err := s.GetTournamentData(ctx, id)
	if err != nil {
		return nil, err
	}
	return bracket.ComputeStandings(data.Participants, data.Matches, data.Sets, data.Tournament.TiebreakGames), nil
}

// Validate checks the stored bracket. A nil error means it is consistent.
func (s *TournamentService) Validate(ctx context.Context, id string) error {
	if _, err := s.store.GetTournament(ctx, id); err != nil {
		return err
	}
	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return err
	}
	return bracket.Validate(matches)
}

// nextMatchID returns the first match, in bracket order, that can be played.
func nextMatchID(matches []bracket.Match) *uuid.UUID {
	sorted := make([]bracket.Match, len(matches))
	copy(sorted, matches)
	bracket.SortMatches(sorted)

	for _, m := range sorted {
		if !m.IsBye && !m.Status.Terminal() && m.Ready() {
			id := m.ID
			return &id
		}
	}
	return nil
}

// roundRobinByes lists who sits out each group round. Byes are not stored, so
// they are recovered from who is missing from a round.
func roundRobinByes(participants []bracket.Participant, matches []bracket.Match) []bracket.Bye {
	playing := make(map[int]map[uuid.UUID]bool)
	for _, m := range matches {
		if m.BracketSide != bracket.GroupSide || !m.Ready() {
			continue
		}
		if playing[m.RoundNumber] == nil {
			playing[m.RoundNumber] = make(map[uuid.UUID]bool)
		}
		playing[m.RoundNumber][*m.Participant1ID] = true
		playing[m.RoundNumber][*m.Participant2ID] = true
	}

	var byes []bracket.Bye
	for round := 1; round <= len(playing); round++ {
		for _, p := range participants {
			if !playing[round][p.ID] {
				byes = append(byes, bracket.Bye{Round: round, ParticipantID: p.ID})
			}
		}
	}
	return byes
}
