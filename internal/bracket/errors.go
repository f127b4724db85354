package bracket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidParticipantCount = errors.New("invalid participant count")
	ErrDuplicateParticipant    = errors.New("duplicate participant")
	ErrUnsupportedFormat       = errors.New("unsupported tournament format")

	ErrMatchNotTerminal       = errors.New("match is not terminal")
	ErrDownstreamSlotOccupied = errors.New("downstream slot already occupied")
	ErrByeMatch               = errors.New("bye matches are resolved at build time")
	ErrInconsistentBracket    = errors.New("inconsistent bracket")

	ErrInvalidTransition = errors.New("invalid match status transition")
	ErrMatchNotReady     = errors.New("match is waiting for a participant")
	ErrWinnerNotInMatch  = errors.New("winner is not part of this match")
	ErrUndecidedSets     = errors.New("sets do not decide a winner")
)

// Violation is a single structural problem found by Validate.
type Violation struct {
	MatchID uuid.UUID
	Reason  string
}

func (v Violation) String() string {
	if v.MatchID == uuid.Nil {
		return v.Reason
	}
	return fmt.Sprintf("match %s: %s", v.MatchID, v.Reason)
}

// InconsistentBracketError lists every violation found, not just the first.
type InconsistentBracketError struct {
	Violations []Violation
}

func (e *InconsistentBracketError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrInconsistentBracket, strings.Join(parts, "; "))
}

func (e *InconsistentBracketError) Unwrap() error {
	return ErrInconsistentBracket
}
