package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Registration is a user's request to play in a tournament. Confirmed
// registrations become the participants when the tournament starts, seeded in
// the order they registered.
type Registration struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	TournamentID uuid.UUID          `db:"tournament_id" json:"tournament_id"`
	UserID       uuid.UUID          `db:"user_id" json:"user_id"`
	Name         string             `db:"name" json:"name"`
	Status       RegistrationStatus `db:"status" json:"status"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	ConfirmedAt  *time.Time         `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

// Active registrations hold a place in the tournament.
func (r Registration) Active() bool {
	return r.Status != RegistrationCancelled
}

// ConfirmRegistration accepts a pending registration.
func ConfirmRegistration(r Registration, at time.Time) (Registration, error) {
	if r.Status != RegistrationPending {
		return r, fmt.Errorf("%w: cannot confirm a %s registration", ErrInvalidTransition, r.Status)
	}
	r.Status = RegistrationConfirmed
	r.ConfirmedAt = &at
	return r, nil
}

// CancelRegistration withdraws a pending or confirmed registration.
func CancelRegistration(r Registration) (Registration, error) {
	if r.Status == RegistrationCancelled {
		return r, fmt.Errorf("%w: registration is already cancelled", ErrInvalidTransition)
	}
	r.Status = RegistrationCancelled
	return r, nil
}

// Entrants turns confirmed registrations into bracket participants in
// registration order. Pending and cancelled registrations are skipped.
func Entrants(tournamentID uuid.UUID, registrations []Registration) []Participant {
	var ps []Participant
	for _, r := range registrations {
		if r.Status != RegistrationConfirmed {
			continue
		}
		userID := r.UserID
		ps = append(ps, Participant{
			ID:           uuid.NewSHA1(tournamentID, []byte(r.ID.String())),
			TournamentID: tournamentID,
			UserID:       &userID,
			Name:         r.Name,
		})
	}
	return ps
}
