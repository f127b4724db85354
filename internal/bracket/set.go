package bracket

import "github.com/google/uuid"

// Set holds the games won by each slot of a match. Tiebreak points are kept
// for display and only decide the set when the games are level at the
// tiebreak threshold.
type Set struct {
	ID                         uuid.UUID  `db:"id" json:"id" yaml:"id"`
	MatchID                    uuid.UUID  `db:"match_id" json:"match_id" yaml:"match_id"`
	SetNumber                  int        `db:"set_number" json:"set_number" yaml:"set_number"`
	Participant1Games          int        `db:"participant_1_games" json:"participant_1_games" yaml:"participant_1_games"`
	Participant2Games          int        `db:"participant_2_games" json:"participant_2_games" yaml:"participant_2_games"`
	IsTiebreak                 bool       `db:"is_tiebreak" json:"is_tiebreak" yaml:"is_tiebreak"`
	Participant1TiebreakPoints int        `db:"participant_1_tiebreak_points" json:"participant_1_tiebreak_points" yaml:"participant_1_tiebreak_points"`
	Participant2TiebreakPoints int        `db:"participant_2_tiebreak_points" json:"participant_2_tiebreak_points" yaml:"participant_2_tiebreak_points"`
	IsCompleted                bool       `db:"is_completed" json:"is_completed" yaml:"is_completed"`
	WinnerID                   *uuid.UUID `db:"winner_id" json:"winner_id,omitempty" yaml:"winner_id,omitempty"`
}
