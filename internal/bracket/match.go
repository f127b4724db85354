package bracket

import (
	"time"

	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchForfeited  MatchStatus = "forfeited"
	MatchCancelled  MatchStatus = "cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchInProgress, MatchCompleted, MatchForfeited, MatchCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchForfeited || s == MatchCancelled
}

// Decided reports whether the status carries a winner and triggers progression.
func (s MatchStatus) Decided() bool {
	return s == MatchCompleted || s == MatchForfeited
}

type BracketSide string

const (
	WinnersSide BracketSide = "winners"
	LosersSide  BracketSide = "losers"
	FinalsSide  BracketSide = "finals"
	GroupSide   BracketSide = "group"
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id" yaml:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id" yaml:"tournament_id"`

	// Position in the tournament for reconstructing the view
	BracketSide BracketSide `db:"bracket_side" json:"bracket_side" yaml:"bracket_side"`
	RoundNumber int         `db:"round_number" json:"round_number" yaml:"round_number"`
	MatchOrder  int         `db:"match_order" json:"match_order" yaml:"match_order"`

	Participant1ID *uuid.UUID `db:"participant_1_id" json:"participant_1_id,omitempty" yaml:"participant_1_id,omitempty"`
	Participant2ID *uuid.UUID `db:"participant_2_id" json:"participant_2_id,omitempty" yaml:"participant_2_id,omitempty"`

	Status      MatchStatus `db:"status" json:"status" yaml:"status"`
	WinnerID    *uuid.UUID  `db:"winner_id" json:"winner_id,omitempty" yaml:"winner_id,omitempty"`
	ForfeitedBy *uuid.UUID  `db:"forfeited_by" json:"forfeited_by,omitempty" yaml:"forfeited_by,omitempty"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id" json:"winner_next_match_id,omitempty" yaml:"winner_next_match_id,omitempty"`
	WinnerNextSlot    *int       `db:"winner_next_slot" json:"winner_next_slot,omitempty" yaml:"winner_next_slot,omitempty"`

	LoserNextMatchID *uuid.UUID `db:"loser_next_match_id" json:"loser_next_match_id,omitempty" yaml:"loser_next_match_id,omitempty"`
	LoserNextSlot    *int       `db:"loser_next_slot" json:"loser_next_slot,omitempty" yaml:"loser_next_slot,omitempty"`

	IsBye      bool `db:"is_bye" json:"is_bye" yaml:"is_bye"`
	BestOfSets int  `db:"best_of_sets" json:"best_of_sets" yaml:"best_of_sets"`

	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// Slot returns the participant in slot 1 or 2.
func (m *Match) Slot(slot int) *uuid.UUID {
	switch slot {
	case 1:
		return m.Participant1ID
	case 2:
		return m.Participant2ID
	}
	return nil
}

func (m *Match) setSlot(slot int, id uuid.UUID) {
	switch slot {
	case 1:
		m.Participant1ID = &id
	case 2:
		m.Participant2ID = &id
	}
}

// SlotOf returns 1 or 2 for a participant in the match, 0 otherwise.
func (m *Match) SlotOf(id uuid.UUID) int {
	if utils.Is(m.Participant1ID, id) {
		return 1
	}
	if utils.Is(m.Participant2ID, id) {
		return 2
	}
	return 0
}

// Ready reports whether both slots are filled and the match can be scheduled.
func (m *Match) Ready() bool {
	return m.Participant1ID != nil && m.Participant2ID != nil
}

func (m *Match) IsWinner(slot int) bool {
	p := m.Slot(slot)
	return m.Status.Decided() && utils.Same(p, m.WinnerID)
}

func (m *Match) IsLoser(slot int) bool {
	p := m.Slot(slot)
	return m.Status.Decided() && m.WinnerID != nil && p != nil && !utils.Same(p, m.WinnerID)
}

// Loser returns the participant who lost a decided match.
func (m *Match) Loser() *uuid.UUID {
	switch {
	case m.IsLoser(1):
		return m.Participant1ID
	case m.IsLoser(2):
		return m.Participant2ID
	}
	return nil
}

func (m *Match) Involves(id uuid.UUID) bool {
	return m.SlotOf(id) != 0
}
