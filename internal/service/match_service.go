package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/realtime"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const minTiebreakPoints = 7

type MatchService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	publisher Publisher
	locks     *tournamentLocks
	logger    *zap.Logger
}

// NewMatchService wires match handling. A nil publisher disables events.
func NewMatchService(db *sqlx.DB, store *store.TournamentStore, publisher Publisher, logger *zap.Logger) *MatchService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &MatchService{
		db:        db,
		store:     store,
		publisher: publisher,
		locks:     newTournamentLocks(),
		logger:    logger.Named("matches"),
	}
}

type MatchData struct {
	Match        *bracket.Match       `json:"match"`
	Participant1 *bracket.Participant `json:"participant_1,omitempty"`
	Participant2 *bracket.Participant `json:"participant_2,omitempty"`
	Sets         []bracket.Set        `json:"sets"`
	NextMatchID  *uuid.UUID           `json:"next_match_id,omitempty"`
}

// MatchResult is the outcome of a state change on a match.
type MatchResult struct {
	Match       bracket.Match              `json:"match"`
	Progression *bracket.ProgressionUpdate `json:"progression,omitempty"`
}

// SetInput is one set of a score sheet, from slot 1's point of view.
type SetInput struct {
	Participant1Games          int `json:"participant_1_games"`
	Participant2Games          int `json:"participant_2_games"`
	Participant1TiebreakPoints int `json:"participant_1_tiebreak_points"`
	Participant2TiebreakPoints int `json:"participant_2_tiebreak_points"`
}

func (s *MatchService) GetMatchViewData(ctx context.Context, matchIDStr string) (*MatchData, error) {
	match, err := s.store.GetMatch(ctx, matchIDStr)
	if err != nil {
		return nil, err
	}

	var p1, p2 *bracket.Participant
	if match.Participant1ID != nil {
		p, err := s.store.GetParticipant(ctx, match.Participant1ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to get participant 1: %w", err)
		}
		p1 = p
	}
	if match.Participant2ID != nil {
		p, err := s.store.GetParticipant(ctx, match.Participant2ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to get participant 2: %w", err)
		}
		p2 = p
	}

	sets, err := s.store.GetMatchSets(ctx, matchIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}

	matches, err := s.store.GetMatches(ctx, match.TournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get next match: %w", err)
	}

	return &MatchData{
		Match:        match,
		Participant1: p1,
		Participant2: p2,
		Sets:         sets,
		NextMatchID:  nextMatchID(matches),
	}, nil
}

// LiveMatches lists the matches being played in every running tournament.
func (s *MatchService) LiveMatches(ctx context.Context, page store.Page) ([]bracket.Match, error) {
	return s.store.GetMatchesByStatus(ctx, bracket.MatchInProgress, page)
}

// UpcomingMatches lists the caller's matches that are ready but not started.
func (s *MatchService) UpcomingMatches(ctx context.Context, page store.Page) ([]bracket.Match, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.store.GetUpcomingMatchesForUser(ctx, userID, page)
}

// MyMatches lists every match the caller plays in, most recent first.
func (s *MatchService) MyMatches(ctx context.Context, page store.Page) ([]bracket.Match, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.store.GetMatchesForUser(ctx, userID, page)
}

// TournamentMatches lists a tournament's matches in one status.
func (s *MatchService) TournamentMatches(ctx context.Context, tournamentID uuid.UUID, status bracket.MatchStatus) ([]bracket.Match, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, status)
	}
	if _, err := s.store.GetTournament(ctx, tournamentID.String()); err != nil {
		return nil, err
	}
	return s.store.GetTournamentMatchesByStatus(ctx, tournamentID.String(), status)
}

func (s *MatchService) StartMatch(ctx context.Context, matchID uuid.UUID) (*MatchResult, error) {
	return s.apply(ctx, matchID, "start", func(_ *sqlx.Tx, m bracket.Match, _ *bracket.Tournament) (bracket.Match, error) {
		return bracket.Start(m)
	})
}

func (s *MatchService) SubmitResult(ctx context.Context, matchID, winnerID uuid.UUID) (*MatchResult, error) {
	return s.apply(ctx, matchID, "result", func(_ *sqlx.Tx, m bracket.Match, _ *bracket.Tournament) (bracket.Match, error) {
		return bracket.Complete(m, winnerID)
	})
}

// SubmitSets records the full score sheet and completes the match for
// whoever won the majority of sets.
func (s *MatchService) SubmitSets(ctx context.Context, matchID uuid.UUID, inputs []SetInput) (*MatchResult, error) {
	return s.apply(ctx, matchID, "sets", func(tx *sqlx.Tx, m bracket.Match, t *bracket.Tournament) (bracket.Match, error) {
		if m.IsBye {
			return m, bracket.ErrByeMatch
		}
		if !m.Ready() {
			return m, bracket.ErrMatchNotReady
		}
		if m.Status != bracket.MatchInProgress {
			return m, fmt.Errorf("%w: cannot score a %s match", bracket.ErrInvalidTransition, m.Status)
		}
		sets, slot, err := scoreSheet(m, inputs, t.TiebreakGames)
		if err != nil {
			return m, err
		}
		done, err := bracket.Complete(m, *m.Slot(slot))
		if err != nil {
			return m, err
		}
		if err := s.store.ReplaceSetsTx(ctx, tx, m.ID, sets); err != nil {
			return m, fmt.Errorf("failed to store sets: %w", err)
		}
		return done, nil
	})
}

func (s *MatchService) ForfeitMatch(ctx context.Context, matchID, forfeitedBy uuid.UUID) (*MatchResult, error) {
	return s.apply(ctx, matchID, "forfeit", func(_ *sqlx.Tx, m bracket.Match, _ *bracket.Tournament) (bracket.Match, error) {
		return bracket.Forfeit(m, forfeitedBy)
	})
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID uuid.UUID) (*MatchResult, error) {
	return s.apply(ctx, matchID, "cancel", func(_ *sqlx.Tx, m bracket.Match, _ *bracket.Tournament) (bracket.Match, error) {
		return bracket.Cancel(m)
	})
}

type transition func(tx *sqlx.Tx, m bracket.Match, t *bracket.Tournament) (bracket.Match, error)

// apply runs one transition on a match and, for terminal results, the
// bracket progression it triggers. Everything is committed together or not
// at all, and results within a tournament are handled one at a time.
func (s *MatchService) apply(ctx context.Context, matchID uuid.UUID, action string, fn transition) (*MatchResult, error) {
	current, err := s.store.GetMatch(ctx, matchID.String())
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(current.TournamentID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, current.TournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok && userID != tournament.OwnerID {
		return nil, ErrNotOwner
	}
	if tournament.Status != bracket.TournamentInProgress {
		return nil, fmt.Errorf("%w: tournament is %s", ErrTournamentClosed, tournament.Status)
	}

	// Re-read under the lock; another request may have changed it.
	match, err := s.store.GetMatchTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, err
	}

	updated, err := fn(tx, *match, tournament)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateMatch(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	result := &MatchResult{Match: updated}
	if updated.Status.Terminal() {
		matches, err := s.store.GetMatchesTx(ctx, tx, tournament.ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to get matches: %w", err)
		}

		update, err := bracket.Advance(updated, matches)
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, tx, tournament, update); err != nil {
			return nil, err
		}
		result.Progression = update
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("match updated",
		zap.String("action", action),
		zap.String("match_id", matchID.String()),
		zap.String("tournament_id", tournament.ID.String()),
		zap.String("status", string(updated.Status)),
	)
	s.publish(ctx, tournament, result)
	return result, nil
}

func (s *MatchService) persist(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, update *bracket.ProgressionUpdate) error {
	for i := range update.Updated {
		if err := s.store.UpdateMatch(ctx, tx, &update.Updated[i]); err != nil {
			return fmt.Errorf("failed to update match %s: %w", update.Updated[i].ID, err)
		}
	}
	if err := s.store.CreateMatches(ctx, tx, update.Created); err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	if update.TournamentComplete {
		if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournament.ID.String(), bracket.TournamentCompleted); err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
	}
	return nil
}

// publish runs after commit. Failures here only cost subscribers an update.
func (s *MatchService) publish(ctx context.Context, tournament *bracket.Tournament, result *MatchResult) {
	room := Room(tournament.ID)
	s.publisher.Publish(room, realtime.EventMatchUpdated, result.Match)

	update := result.Progression
	if update == nil {
		return
	}
	for _, m := range update.Updated {
		if m.ID != result.Match.ID {
			s.publisher.Publish(room, realtime.EventMatchUpdated, m)
		}
	}
	for _, m := range update.Created {
		s.publisher.Publish(room, realtime.EventMatchCreated, m)
	}

	champion := update.Champion
	if result.Match.BracketSide == bracket.GroupSide && (result.Match.Status.Decided() || update.TournamentComplete) {
		standings, err := s.standings(ctx, tournament)
		if err != nil {
			s.logger.Warn("failed to compute standings for event", zap.String("tournament_id", tournament.ID.String()), zap.Error(err))
		} else {
			s.publisher.Publish(room, realtime.EventStandingsUpdated, StandingsEvent{TournamentID: tournament.ID, Standings: standings})
			if update.TournamentComplete && len(standings) > 0 {
				champion = &standings[0].ParticipantID
			}
		}
	}

	if update.TournamentComplete {
		s.publisher.Publish(room, realtime.EventTournamentCompleted, TournamentCompletedEvent{TournamentID: tournament.ID, ChampionID: champion})
	}
}

func (s *MatchService) standings(ctx context.Context, tournament *bracket.Tournament) ([]bracket.StandingsRow, error) {
	id := tournament.ID.String()
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
	return bracket.ComputeStandings(participants, matches, sets, tournament.TiebreakGames), nil
}

// scoreSheet turns submitted sets into stored ones and returns the winning
// slot. Every set must be finished and none may follow the deciding set.
func scoreSheet(m bracket.Match, inputs []SetInput, tiebreakGames int) ([]bracket.Set, int, error) {
	bestOf := m.BestOfSets
	if bestOf <= 0 {
		bestOf = bracket.DefaultBestOfSets
	}
	if tiebreakGames <= 0 {
		tiebreakGames = bracket.DefaultTiebreakGames
	}
	if len(inputs) == 0 || len(inputs) > bestOf {
		return nil, 0, fmt.Errorf("%w: expected 1 to %d sets, got %d", ErrInvalidInput, bestOf, len(inputs))
	}

	sets := make([]bracket.Set, len(inputs))
	for i, in := range inputs {
		if in.Participant1Games < 0 || in.Participant2Games < 0 || in.Participant1TiebreakPoints < 0 || in.Participant2TiebreakPoints < 0 {
			return nil, 0, fmt.Errorf("%w: set %d has a negative score", ErrInvalidInput, i+1)
		}

		set := bracket.Set{
			ID:                         uuid.New(),
			MatchID:                    m.ID,
			SetNumber:                  i + 1,
			Participant1Games:          in.Participant1Games,
			Participant2Games:          in.Participant2Games,
			Participant1TiebreakPoints: in.Participant1TiebreakPoints,
			Participant2TiebreakPoints: in.Participant2TiebreakPoints,
		}
		hi, lo := max(in.Participant1Games, in.Participant2Games), min(in.Participant1Games, in.Participant2Games)
		set.IsTiebreak = hi == tiebreakGames+1 && lo == tiebreakGames

		slot := bracket.SetWinner(set, tiebreakGames)
		if slot == 0 {
			return nil, 0, fmt.Errorf("%w: set %d is not finished", bracket.ErrUndecidedSets, i+1)
		}
		if err := checkTiebreak(set, slot); err != nil {
			return nil, 0, fmt.Errorf("%w: set %d %v", ErrInvalidInput, i+1, err)
		}
		set.IsCompleted = true
		set.WinnerID = m.Slot(slot)
		sets[i] = set

		if i < len(inputs)-1 && bracket.MatchWinnerFromSets(sets[:i+1], bestOf, tiebreakGames) != 0 {
			return nil, 0, fmt.Errorf("%w: set %d was played after the match was decided", ErrInvalidInput, i+2)
		}
	}

	slot := bracket.MatchWinnerFromSets(sets, bestOf, tiebreakGames)
	if slot == 0 {
		return nil, 0, bracket.ErrUndecidedSets
	}
	return sets, slot, nil
}

// checkTiebreak holds tiebreak points to the games: only a tiebreak set
// carries them, and the set winner must have taken the tiebreak by two with
// at least seven points.
func checkTiebreak(set bracket.Set, slot int) error {
	p1, p2 := set.Participant1TiebreakPoints, set.Participant2TiebreakPoints
	if !set.IsTiebreak {
		if p1 != 0 || p2 != 0 {
			return errors.New("has tiebreak points but was not a tiebreak")
		}
		return nil
	}
	won, lost := p1, p2
	if slot == 2 {
		won, lost = p2, p1
	}
	if won < minTiebreakPoints || won-lost < 2 {
		return fmt.Errorf("tiebreak %d-%d does not match the set winner", p1, p2)
	}
	return nil
}
