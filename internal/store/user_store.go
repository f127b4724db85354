package store

import (
	"context"

	users "github.com/AdamBeresnev/tourney/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	insertUserQuery = `INSERT INTO users (id, email, username, provider, provider_id, avatar_url)
        VALUES (:id, :email, :username, :provider, :provider_id, :avatar_url)`

	updateUserProfileQuery = `UPDATE users SET
            username = :username,
            avatar_url = :avatar_url
        WHERE id = :id`

	// Counts behind /api/me. A participant row only has a user once the
	// tournament was started from registrations.
	selectUserActivityQuery = `SELECT
            (SELECT COUNT(*) FROM tournaments WHERE owner_id = ?) AS owned_tournaments,
            (SELECT COUNT(*) FROM registrations WHERE user_id = ? AND status != 'cancelled') AS active_registrations,
            (SELECT COUNT(*) FROM participants WHERE user_id = ?) AS entries`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return getUser(ctx, s.db, "SELECT * FROM users WHERE id = ?", id)
}

func (s *UserStore) GetUserTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*users.User, error) {
	return getUser(ctx, tx, "SELECT * FROM users WHERE id = ?", id)
}

func (s *UserStore) GetUserByProviderTx(ctx context.Context, tx *sqlx.Tx, provider, providerID string) (*users.User, error) {
	return getUser(ctx, tx, "SELECT * FROM users WHERE provider = ? AND provider_id = ?", provider, providerID)
}

func getUser(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*users.User, error) {
	var user users.User
	if err := sqlx.GetContext(ctx, q, &user, query, args...); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUserTx(ctx context.Context, tx *sqlx.Tx, user *users.User) error {
	_, err := tx.NamedExecContext(ctx, insertUserQuery, user)
	return err
}

// UpdateProfileTx refreshes the name and avatar copied from the provider.
func (s *UserStore) UpdateProfileTx(ctx context.Context, tx *sqlx.Tx, user *users.User) error {
	res, err := tx.NamedExecContext(ctx, updateUserProfileQuery, user)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// GetProfile returns the user with counts of what they organise and play in.
func (s *UserStore) GetProfile(ctx context.Context, id uuid.UUID) (*users.Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := users.Profile{User: *user}
	if err := s.db.GetContext(ctx, &profile.Activity, selectUserActivityQuery, id, id, id); err != nil {
		return nil, err
	}
	return &profile, nil
}
