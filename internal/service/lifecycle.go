package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DraftInput sets up a tournament that fills up from registrations.
type DraftInput struct {
	Name            string         `json:"name"`
	Format          bracket.Format `json:"format"`
	MaxParticipants int            `json:"max_participants"`
	BestOfSets      int            `json:"best_of_sets"`
	TiebreakGames   int            `json:"tiebreak_games"`
}

// UpdateTournamentInput changes the settings of a tournament that has not
// started. Nil fields are left alone.
type UpdateTournamentInput struct {
	Name            *string         `json:"name,omitempty"`
	Format          *bracket.Format `json:"format,omitempty"`
	MaxParticipants *int            `json:"max_participants,omitempty"`
	BestOfSets      *int            `json:"best_of_sets,omitempty"`
	TiebreakGames   *int            `json:"tiebreak_games,omitempty"`
}

type StartInput struct {
	// Nil seeds in registration order.
	RandomSeed *int64 `json:"random_seed,omitempty"`
}

// CreateDraft stores a tournament without a bracket. People register for it
// and StartTournament builds the bracket from the confirmed registrations.
func (s *TournamentService) CreateDraft(ctx context.Context, input DraftInput) (*bracket.Tournament, error) {
	name, err := tournamentName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", bracket.ErrUnsupportedFormat, input.Format)
	}
	maxParticipants, bestOf, tiebreak, err := settings(input.MaxParticipants, input.BestOfSets, input.TiebreakGames)
	if err != nil {
		return nil, err
	}

	ownerID, _ := middleware.GetUserIDFromContext(ctx)
	tournament := &bracket.Tournament{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            name,
		Status:          bracket.TournamentDraft,
		Format:          input.Format,
		MaxParticipants: maxParticipants,
		BestOfSets:      bestOf,
		TiebreakGames:   tiebreak,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	created, err := s.store.GetTournamentTx(ctx, tx, tournament.ID.String())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("draft created",
		zap.String("tournament_id", created.ID.String()),
		zap.String("format", string(created.Format)),
	)
	return created, nil
}

// UpdateTournament edits the settings of a pending tournament. The limit can
// not drop below the number of confirmed registrations.
func (s *TournamentService) UpdateTournament(ctx context.Context, id uuid.UUID, input UpdateTournamentInput) (*bracket.Tournament, error) {
	return s.change(ctx, id, "update", func(tx *sqlx.Tx, t *bracket.Tournament) error {
		if !t.Status.Pending() {
			return fmt.Errorf("%w: cannot change a %s tournament", bracket.ErrInvalidTransition, t.Status)
		}

		if input.Name != nil {
			name, err := tournamentName(*input.Name)
			if err != nil {
				return err
			}
			t.Name = name
		}
		if input.Format != nil {
			if !input.Format.Valid() {
				return fmt.Errorf("%w: %q", bracket.ErrUnsupportedFormat, *input.Format)
			}
			t.Format = *input.Format
		}

		maxParticipants, bestOf, tiebreak := t.MaxParticipants, t.BestOfSets, t.TiebreakGames
		if input.MaxParticipants != nil {
			maxParticipants = *input.MaxParticipants
		}
		if input.BestOfSets != nil {
			bestOf = *input.BestOfSets
		}
		if input.TiebreakGames != nil {
			tiebreak = *input.TiebreakGames
		}
		var err error
		t.MaxParticipants, t.BestOfSets, t.TiebreakGames, err = settings(maxParticipants, bestOf, tiebreak)
		if err != nil {
			return err
		}

		confirmed, err := s.store.CountRegistrationsTx(ctx, tx, t.ID, bracket.RegistrationConfirmed)
		if err != nil {
			return err
		}
		if confirmed > t.MaxParticipants {
			return fmt.Errorf("%w: %d registrations are already confirmed", ErrInvalidInput, confirmed)
		}
		return nil
	})
}

func (s *TournamentService) OpenRegistration(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.moveTo(ctx, id, bracket.TournamentRegistrationOpen, bracket.TournamentDraft, bracket.TournamentRegistrationClosed)
}

func (s *TournamentService) CloseRegistration(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.moveTo(ctx, id, bracket.TournamentRegistrationClosed, bracket.TournamentRegistrationOpen)
}

// CancelTournament stops a tournament for good. Its matches stay as they are
// and no further results are accepted.
func (s *TournamentService) CancelTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.moveTo(ctx, id, bracket.TournamentCancelled,
		bracket.TournamentDraft, bracket.TournamentRegistrationOpen, bracket.TournamentRegistrationClosed, bracket.TournamentInProgress)
}

func (s *TournamentService) moveTo(ctx context.Context, id uuid.UUID, to bracket.TournamentStatus, from ...bracket.TournamentStatus) (*bracket.Tournament, error) {
	return s.change(ctx, id, string(to), func(_ *sqlx.Tx, t *bracket.Tournament) error {
		if !slices.Contains(from, t.Status) {
			return fmt.Errorf("%w: cannot move a %s tournament to %s", bracket.ErrInvalidTransition, t.Status, to)
		}
		t.Status = to
		return nil
	})
}

// StartTournament builds the bracket over the confirmed registrations, in
// the order they registered unless a random seed is given, and puts the
// tournament in progress.
func (s *TournamentService) StartTournament(ctx context.Context, id uuid.UUID, input StartInput) (*bracket.Tournament, error) {
	var built *bracket.Result
	t, err := s.change(ctx, id, "start", func(tx *sqlx.Tx, t *bracket.Tournament) error {
		if !t.Status.Pending() {
			return fmt.Errorf("%w: cannot start a %s tournament", bracket.ErrInvalidTransition, t.Status)
		}

		registrations, err := s.store.GetRegistrationsTx(ctx, tx, t.ID.String())
		if err != nil {
			return fmt.Errorf("failed to get registrations: %w", err)
		}
		result, err := bracket.Build(bracket.Entrants(t.ID, registrations), t.Format, bracket.Options{
			TournamentID:    t.ID,
			MaxParticipants: t.MaxParticipants,
			RandomSeed:      input.RandomSeed,
			BestOfSets:      t.BestOfSets,
		})
		if err != nil {
			return err
		}
		if err := bracket.Validate(result.Matches); err != nil {
			return fmt.Errorf("generated bracket is invalid: %w", err)
		}

		if err := s.store.CreateParticipants(ctx, tx, result.Participants); err != nil {
			return fmt.Errorf("failed to create participants: %w", err)
		}
		if err := s.store.CreateMatches(ctx, tx, result.Matches); err != nil {
			return fmt.Errorf("failed to create matches: %w", err)
		}
		t.Status = bracket.TournamentInProgress
		built = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament started",
		zap.String("tournament_id", t.ID.String()),
		zap.Int("participants", len(built.Participants)),
		zap.Int("matches", len(built.Matches)),
	)
	return t, nil
}

// change runs fn on the owner's tournament under its lock and stores the
// result in the same transaction.
func (s *TournamentService) change(ctx context.Context, id uuid.UUID, action string, fn func(tx *sqlx.Tx, t *bracket.Tournament) error) (*bracket.Tournament, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.ownedTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(tx, tournament); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTournamentTx(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("tournament updated",
		zap.String("action", action),
		zap.String("tournament_id", id.String()),
		zap.String("status", string(tournament.Status)),
	)
	return tournament, nil
}

// ownedTx loads a tournament and checks that the caller organises it.
func (s *TournamentService) ownedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournamentTx(ctx, tx, id.String())
	if err != nil {
		return nil, err
	}
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok && userID != tournament.OwnerID {
		return nil, ErrNotOwner
	}
	return tournament, nil
}
