package store

import (
	"context"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	insertRegistrationQuery = `INSERT INTO registrations (id, tournament_id, user_id, name, status, created_at, confirmed_at)
        VALUES (:id, :tournament_id, :user_id, :name, :status, :created_at, :confirmed_at)`

	updateRegistrationQuery = `UPDATE registrations SET
            status = :status,
            confirmed_at = :confirmed_at
        WHERE id = :id`

	// Registration order is the seeding, so ties on the timestamp fall back to
	// insertion order.
	selectRegistrationsQuery = `SELECT * FROM registrations WHERE tournament_id = ?
        ORDER BY created_at ASC, rowid ASC`
)

func (s *TournamentStore) CreateRegistrationTx(ctx context.Context, tx *sqlx.Tx, registration *bracket.Registration) error {
	_, err := tx.NamedExecContext(ctx, insertRegistrationQuery, registration)
	return err
}

func (s *TournamentStore) UpdateRegistrationTx(ctx context.Context, tx *sqlx.Tx, registration *bracket.Registration) error {
	res, err := tx.NamedExecContext(ctx, updateRegistrationQuery, registration)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *TournamentStore) GetRegistration(ctx context.Context, id string) (*bracket.Registration, error) {
	return getRegistration(ctx, s.db, id)
}

func (s *TournamentStore) GetRegistrationTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Registration, error) {
	return getRegistration(ctx, tx, id)
}

func getRegistration(ctx context.Context, q sqlx.QueryerContext, id string) (*bracket.Registration, error) {
	var registration bracket.Registration
	if err := sqlx.GetContext(ctx, q, &registration, "SELECT * FROM registrations WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// GetRegistrations returns every registration of a tournament in
// registration order, cancelled ones included.
func (s *TournamentStore) GetRegistrations(ctx context.Context, tournamentID string, page Page) ([]bracket.Registration, error) {
	limit, offset := page.bounds()
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations, selectRegistrationsQuery+" LIMIT ? OFFSET ?", tournamentID, limit, offset)
	return registrations, err
}

func (s *TournamentStore) GetRegistrationsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := tx.SelectContext(ctx, &registrations, selectRegistrationsQuery, tournamentID)
	return registrations, err
}

// GetRegistrationsByUser lists a user's registrations, newest first.
func (s *TournamentStore) GetRegistrationsByUser(ctx context.Context, userID uuid.UUID, page Page) ([]bracket.Registration, error) {
	limit, offset := page.bounds()
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations,
		"SELECT * FROM registrations WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?", userID, limit, offset)
	return registrations, err
}

// ActiveRegistrationTx finds the user's pending or confirmed registration for
// a tournament.
func (s *TournamentStore) ActiveRegistrationTx(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) (*bracket.Registration, error) {
	var registration bracket.Registration
	err := tx.GetContext(ctx, &registration,
		"SELECT * FROM registrations WHERE tournament_id = ? AND user_id = ? AND status != 'cancelled'", tournamentID, userID)
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (s *TournamentStore) CountRegistrationsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, status bracket.RegistrationStatus) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM registrations WHERE tournament_id = ? AND status = ?", tournamentID, status)
	return n, err
}
