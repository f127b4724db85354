package bracket

import "github.com/google/uuid"

type Participant struct {
	ID           uuid.UUID  `db:"id" json:"id" yaml:"id"`
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id" yaml:"tournament_id"`
	UserID       *uuid.UUID `db:"user_id" json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name         string     `db:"name" json:"name" yaml:"name"`
	Seed         int        `db:"seed" json:"seed" yaml:"seed"`
}
