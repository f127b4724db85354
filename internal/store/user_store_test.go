package store

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	users "github.com/AdamBeresnev/tourney/internal/user"
	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore(t *testing.T) {
	database := setupTestDB(t)
	store := NewUserStore(database)
	ctx := context.Background()

	guest, err := store.GetUser(ctx, users.GuestID)
	require.NoError(t, err)
	assert.Equal(t, "Guest User", guest.Username)

	user := &users.User{
		ID:         uuid.New(),
		Email:      "ann@example.com",
		Username:   "ann",
		Provider:   utils.Ptr("discord"),
		ProviderID: utils.Ptr("1234"),
		AvatarURL:  utils.NonBlank("https://cdn.example/a.png"),
	}
	withTx(t, database, func(tx *sqlx.Tx) error {
		return store.CreateUserTx(ctx, tx, user)
	})

	withTx(t, database, func(tx *sqlx.Tx) error {
		byProvider, err := store.GetUserByProviderTx(ctx, tx, "discord", "1234")
		if err != nil {
			return err
		}
		assert.Equal(t, user.ID, byProvider.ID)

		_, err = store.GetUserByProviderTx(ctx, tx, "google", "1234")
		assert.True(t, IsNotFound(err))
		return nil
	})

	user.Username = "annie"
	user.AvatarURL = nil
	withTx(t, database, func(tx *sqlx.Tx) error {
		return store.UpdateProfileTx(ctx, tx, user)
	})

	updated, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "annie", updated.Username)
	assert.Nil(t, updated.AvatarURL)

	missing := *user
	missing.ID = uuid.New()
	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	assert.True(t, IsNotFound(store.UpdateProfileTx(ctx, tx, &missing)))
}

func TestUserStore_Profile(t *testing.T) {
	database := setupTestDB(t)
	userStore := NewUserStore(database)
	tournaments := NewTournamentStore(database)
	ctx := context.Background()

	owned := newTestTournament(t, database, tournaments, bracket.RoundRobin)
	newTestTournament(t, database, tournaments, bracket.SingleElimination)

	guest := owned.OwnerID
	registrations := []bracket.Registration{
		{ID: uuid.New(), TournamentID: owned.ID, UserID: guest, Name: "Guest", Status: bracket.RegistrationConfirmed},
		{ID: uuid.New(), TournamentID: owned.ID, UserID: guest, Name: "Guest", Status: bracket.RegistrationCancelled},
	}
	withTx(t, database, func(tx *sqlx.Tx) error {
		for i := range registrations {
			if err := tournaments.CreateRegistrationTx(ctx, tx, &registrations[i]); err != nil {
				return err
			}
		}
		return tournaments.CreateParticipants(ctx, tx, []bracket.Participant{
			{ID: uuid.New(), TournamentID: owned.ID, UserID: &guest, Name: "Guest", Seed: 1},
		})
	})

	profile, err := userStore.GetProfile(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, "Guest User", profile.Username)
	assert.Equal(t, 2, profile.Activity.OwnedTournaments)
	assert.Equal(t, 1, profile.Activity.ActiveRegistrations)
	assert.Equal(t, 1, profile.Activity.Entries)

	_, err = userStore.GetProfile(ctx, uuid.New())
	assert.True(t, IsNotFound(err))
}
