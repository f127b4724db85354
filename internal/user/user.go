package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

// GuestID is the shared account behind guest logins. The row is created by
// the initial migration.
var GuestID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Provider   *string   `db:"provider" json:"provider,omitempty"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

type Activity struct {
	OwnedTournaments    int `db:"owned_tournaments" json:"owned_tournaments"`
	ActiveRegistrations int `db:"active_registrations" json:"active_registrations"`
	Entries             int `db:"entries" json:"entries"`
}

// Profile is what /api/me answers with.
type Profile struct {
	User
	Activity Activity `json:"activity"`
}
