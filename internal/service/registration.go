package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type RegisterInput struct {
	// Empty falls back to the username.
	Name string `json:"name"`
}

// Register signs the caller up for a tournament. The registration stays
// pending until the organiser confirms it.
func (s *TournamentService) Register(ctx context.Context, tournamentID uuid.UUID, input RegisterInput) (*bracket.Registration, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	unlock := s.locks.lock(tournamentID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		return nil, err
	}
	if !tournament.Status.AcceptsRegistrations() {
		return nil, fmt.Errorf("%w: tournament is %s", ErrRegistrationClosed, tournament.Status)
	}

	_, err = s.store.ActiveRegistrationTx(ctx, tx, tournamentID, userID)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err := s.checkCapacity(ctx, tx, tournament); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		user, err := s.users.GetUserTx(ctx, tx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		name = user.Username
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLength)
	}

	registration := &bracket.Registration{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       userID,
		Name:         name,
		Status:       bracket.RegistrationPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateRegistrationTx(ctx, tx, registration); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("registration created",
		zap.String("registration_id", registration.ID.String()),
		zap.String("tournament_id", tournamentID.String()),
		zap.String("user_id", userID.String()),
	)
	return registration, nil
}

// ConfirmRegistration accepts a pending registration. Only the organiser may
// confirm, and never beyond the tournament's limit.
func (s *TournamentService) ConfirmRegistration(ctx context.Context, registrationID uuid.UUID) (*bracket.Registration, error) {
	return s.changeRegistration(ctx, registrationID, "confirm", func(tx *sqlx.Tx, t *bracket.Tournament, r bracket.Registration) (bracket.Registration, error) {
		if userID, ok := middleware.GetUserIDFromContext(ctx); ok && userID != t.OwnerID {
			return r, ErrNotOwner
		}
		if err := s.checkCapacity(ctx, tx, t); err != nil {
			return r, err
		}
		return bracket.ConfirmRegistration(r, time.Now().UTC())
	})
}

// CancelRegistration withdraws a registration. The registrant and the
// organiser may both do this until the tournament starts.
func (s *TournamentService) CancelRegistration(ctx context.Context, registrationID uuid.UUID) (*bracket.Registration, error) {
	return s.changeRegistration(ctx, registrationID, "cancel", func(_ *sqlx.Tx, t *bracket.Tournament, r bracket.Registration) (bracket.Registration, error) {
		if userID, ok := middleware.GetUserIDFromContext(ctx); ok && userID != t.OwnerID && userID != r.UserID {
			return r, ErrNotOwner
		}
		return bracket.CancelRegistration(r)
	})
}

type registrationChange func(tx *sqlx.Tx, t *bracket.Tournament, r bracket.Registration) (bracket.Registration, error)

func (s *TournamentService) changeRegistration(ctx context.Context, registrationID uuid.UUID, action string, fn registrationChange) (*bracket.Registration, error) {
	current, err := s.store.GetRegistration(ctx, registrationID.String())
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
		return nil, err
	}
	if !tournament.Status.Pending() {
		return nil, fmt.Errorf("%w: tournament is %s", ErrRegistrationClosed, tournament.Status)
	}
	registration, err := s.store.GetRegistrationTx(ctx, tx, registrationID.String())
	if err != nil {
		return nil, err
	}

	updated, err := fn(tx, tournament, *registration)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateRegistrationTx(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("registration updated",
		zap.String("action", action),
		zap.String("registration_id", registrationID.String()),
		zap.String("status", string(updated.Status)),
	)
	return &updated, nil
}

// checkCapacity fails once the confirmed registrations fill the tournament.
func (s *TournamentService) checkCapacity(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament) error {
	confirmed, err := s.store.CountRegistrationsTx(ctx, tx, t.ID, bracket.RegistrationConfirmed)
	if err != nil {
		return fmt.Errorf("failed to count registrations: %w", err)
	}
	if confirmed >= t.MaxParticipants {
		return fmt.Errorf("%w: %d of %d places taken", ErrTournamentFull, confirmed, t.MaxParticipants)
	}
	return nil
}

// ListRegistrations shows the organiser everyone who registered, in order.
func (s *TournamentService) ListRegistrations(ctx context.Context, tournamentID uuid.UUID, page store.Page) ([]bracket.Registration, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID.String())
	if err != nil {
		return nil, err
	}
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok && userID != tournament.OwnerID {
		return nil, ErrNotOwner
	}
	return s.store.GetRegistrations(ctx, tournamentID.String(), page)
}

func (s *TournamentService) MyRegistrations(ctx context.Context, page store.Page) ([]bracket.Registration, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.store.GetRegistrationsByUser(ctx, userID, page)
}
