package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "draft"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentInProgress         TournamentStatus = "in_progress"
	TournamentCompleted          TournamentStatus = "completed"
	TournamentCancelled          TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	return s.Pending() || s == TournamentInProgress || s.Finished()
}

// Pending reports whether the bracket has not been built yet. Settings and
// registrations can only change while a tournament is pending.
func (s TournamentStatus) Pending() bool {
	switch s {
	case TournamentDraft, TournamentRegistrationOpen, TournamentRegistrationClosed:
		return true
	}
	return false
}

// AcceptsRegistrations is true for drafts too, so an organiser can enter
// people before opening the tournament up.
func (s TournamentStatus) AcceptsRegistrations() bool {
	return s == TournamentDraft || s == TournamentRegistrationOpen
}

// Finished tournaments never change again.
func (s TournamentStatus) Finished() bool {
	return s == TournamentCompleted || s == TournamentCancelled
}

type Format string

const (
	RoundRobin        Format = "round_robin"
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
)

func (f Format) Valid() bool {
	switch f {
	case RoundRobin, SingleElimination, DoubleElimination:
		return true
	}
	return false
}

// Defaults match a standard best-of-three tennis event.
const (
	DefaultBestOfSets      = 3
	DefaultTiebreakGames   = 6
	DefaultMaxParticipants = 32
)

type Tournament struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	OwnerID         uuid.UUID        `db:"owner_id" json:"owner_id"`
	Name            string           `db:"name" json:"name"`
	Status          TournamentStatus `db:"status" json:"status"`
	Format          Format           `db:"format" json:"format"`
	MaxParticipants int              `db:"max_participants" json:"max_participants"`
	BestOfSets      int              `db:"best_of_sets" json:"best_of_sets"`
	TiebreakGames   int              `db:"tiebreak_games" json:"tiebreak_games"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
