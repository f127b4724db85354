package bracket

import (
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

// The lifecycle functions return an updated copy and leave the input alone.

func Start(m Match) (Match, error) {
	if m.IsBye {
		return m, ErrByeMatch
	}
	if m.Status != MatchScheduled {
		return m, fmt.Errorf("%w: cannot start a %s match", ErrInvalidTransition, m.Status)
	}
	if !m.Ready() {
		return m, ErrMatchNotReady
	}
	m.Status = MatchInProgress
	return m, nil
}

// Complete records the winner of a match that is being played. A scheduled
// match has to be started first.
func Complete(m Match, winnerID uuid.UUID) (Match, error) {
	if err := checkDecidable(m); err != nil {
		return m, err
	}
	if m.Status != MatchInProgress {
		return m, fmt.Errorf("%w: cannot complete a %s match", ErrInvalidTransition, m.Status)
	}
	if m.SlotOf(winnerID) == 0 {
		return m, ErrWinnerNotInMatch
	}
	m.Status = MatchCompleted
	m.WinnerID = utils.Ptr(winnerID)
	return m, nil
}

// Forfeit records that a participant gave up the match; the opponent wins.
// Unlike Complete it is allowed before the match starts.
func Forfeit(m Match, forfeitedBy uuid.UUID) (Match, error) {
	if err := checkDecidable(m); err != nil {
		return m, err
	}
	slot := m.SlotOf(forfeitedBy)
	if slot == 0 {
		return m, fmt.Errorf("%w: forfeiting participant %s", ErrWinnerNotInMatch, forfeitedBy)
	}
	m.Status = MatchForfeited
	m.ForfeitedBy = utils.Ptr(forfeitedBy)
	m.WinnerID = utils.Ptr(*m.Slot(3 - slot))
	return m, nil
}

// Cancel ends a match without a result. Nothing advances from it.
func Cancel(m Match) (Match, error) {
	if m.IsBye {
		return m, ErrByeMatch
	}
	if m.Status.Terminal() {
		return m, fmt.Errorf("%w: cannot cancel a %s match", ErrInvalidTransition, m.Status)
	}
	m.Status = MatchCancelled
	return m, nil
}

func checkDecidable(m Match) error {
	if m.IsBye {
		return ErrByeMatch
	}
	if m.Status.Terminal() {
		return fmt.Errorf("%w: match is already %s", ErrInvalidTransition, m.Status)
	}
	if !m.Ready() {
		return ErrMatchNotReady
	}
	return nil
}
