package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/tourney/internal/store"
	users "github.com/AdamBeresnev/tourney/internal/user"
	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"go.uber.org/zap"
)

type UserService struct {
	db     *sqlx.DB
	store  *store.UserStore
	logger *zap.Logger
}

func NewUserService(db *sqlx.DB, store *store.UserStore, logger *zap.Logger) *UserService {
	return &UserService{db: db, store: store, logger: logger.Named("users")}
}

// FindOrCreateUserByProvider maps an OAuth login onto a user row, creating it
// on first login and refreshing the name and avatar afterwards.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user, err := s.store.GetUserByProviderTx(ctx, tx, gothUser.Provider, gothUser.UserID)
	switch {
	case err == nil:
		if !s.refreshProfile(ctx, tx, user, gothUser) {
			return user, nil
		}
	case errors.Is(err, sql.ErrNoRows):
		username := gothUser.NickName
		if username == "" {
			username = gothUser.Name
		}
		user = &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   utils.Ptr(gothUser.Provider),
			ProviderID: utils.Ptr(gothUser.UserID),
			AvatarURL:  utils.NonBlank(gothUser.AvatarURL),
		}
		if err := s.store.CreateUserTx(ctx, tx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user created", zap.String("user_id", user.ID.String()), zap.String("provider", gothUser.Provider))
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// refreshProfile reports whether anything was written.
func (s *UserService) refreshProfile(ctx context.Context, tx *sqlx.Tx, user *users.User, gothUser goth.User) bool {
	if utils.Deref(user.AvatarURL, "") == gothUser.AvatarURL && (gothUser.NickName == "" || user.Username == gothUser.NickName) {
		return false
	}
	user.AvatarURL = utils.NonBlank(gothUser.AvatarURL)
	if gothUser.NickName != "" {
		user.Username = gothUser.NickName
	}
	if err := s.store.UpdateProfileTx(ctx, tx, user); err != nil {
		s.logger.Warn("failed to refresh user profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		return false
	}
	return true
}

func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user, err := s.store.GetUserTx(ctx, tx, users.GuestID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	guest := &users.User{
		ID:       users.GuestID,
		Email:    "guest@tourney.local",
		Username: "Guest User",
	}
	if err := s.store.CreateUserTx(ctx, tx, guest); err != nil {
		return nil, err
	}
	return guest, tx.Commit()
}

// Profile answers /api/me.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*users.Profile, error) {
	return s.store.GetProfile(ctx, id)
}
