package bracket

import (
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

// ProgressionUpdate is everything the caller has to persist after a result.
type ProgressionUpdate struct {
	// Existing matches that changed, including the source match when its
	// pointers were filled in.
	Updated []Match `json:"updated"`
	// New matches, i.e. the grand final decider.
	Created []Match `json:"created"`
	// Matches that now have both participants.
	Ready []uuid.UUID `json:"ready"`

	Eliminated         *uuid.UUID `json:"eliminated,omitempty"`
	Champion           *uuid.UUID `json:"champion,omitempty"`
	TournamentComplete bool       `json:"tournament_complete"`
}

type progression struct {
	index   map[uuid.UUID]Match
	changed map[uuid.UUID]*Match
	update  *ProgressionUpdate
}

// Advance moves the winner, and in double elimination the loser, of a decided
// match into their next matches. tournamentMatches is the current state of the
// whole tournament and is not modified. A second call for the same result
// fails with ErrDownstreamSlotOccupied instead of advancing twice.
//
// Matches that feed no slot (a single elimination final, a grand final won by
// the winners bracket champion, any round robin match) leave nothing behind to
// detect a repeat, so calling Advance for them again reports the same
// completion again. Callers run it once per terminal transition; the lifecycle
// functions refuse to leave a terminal state, which keeps it that way.
func Advance(completed Match, tournamentMatches []Match) (*ProgressionUpdate, error) {
	if completed.IsBye {
		return nil, ErrByeMatch
	}
	if !completed.Status.Terminal() {
		return nil, fmt.Errorf("%w: match %s is %s", ErrMatchNotTerminal, completed.ID, completed.Status)
	}

	p := &progression{
		index:   make(map[uuid.UUID]Match, len(tournamentMatches)),
		changed: make(map[uuid.UUID]*Match),
		update:  &ProgressionUpdate{},
	}
	for _, m := range tournamentMatches {
		p.index[m.ID] = m
	}
	p.index[completed.ID] = completed

	if completed.Status == MatchCancelled {
		// Nobody advances. A round robin can still finish without it.
		if completed.BracketSide == GroupSide {
			p.update.TournamentComplete = p.allGroupMatchesTerminal()
		}
		return p.update, nil
	}

	if completed.WinnerID == nil || completed.SlotOf(*completed.WinnerID) == 0 || !completed.Ready() {
		return nil, fmt.Errorf("%w: match %s has no valid winner", ErrWinnerNotInMatch, completed.ID)
	}
	winner := *completed.WinnerID
	loser := *completed.Loser()

	switch {
	case completed.BracketSide == GroupSide:
		p.update.TournamentComplete = p.allGroupMatchesTerminal()
		return p.update, nil

	case completed.BracketSide == FinalsSide:
		if err := p.grandFinal(completed, winner, loser); err != nil {
			return nil, err
		}
		return p.finish(), nil
	}

	if completed.WinnerNextMatchID != nil && completed.WinnerNextSlot != nil {
		if err := p.place(*completed.WinnerNextMatchID, *completed.WinnerNextSlot, winner); err != nil {
			return nil, err
		}
	} else {
		// Only a single elimination final has nowhere to send its winner.
		p.update.Champion = utils.Ptr(winner)
		p.update.TournamentComplete = true
	}

	if completed.LoserNextMatchID != nil && completed.LoserNextSlot != nil {
		if err := p.place(*completed.LoserNextMatchID, *completed.LoserNextSlot, loser); err != nil {
			return nil, err
		}
	} else {
		p.update.Eliminated = utils.Ptr(loser)
	}

	return p.finish(), nil
}

// grandFinal handles the bracket reset. The winners bracket champion sits in
// slot 1 and has not lost yet, so a loss there forces a decider.
func (p *progression) grandFinal(m Match, winner, loser uuid.UUID) error {
	if m.RoundNumber > 1 || m.SlotOf(winner) == 1 {
		p.update.Champion = utils.Ptr(winner)
		p.update.Eliminated = utils.Ptr(loser)
		p.update.TournamentComplete = true
		return nil
	}

	deciderID := MatchID(m.TournamentID, FinalsSide, 2, 1)
	if _, exists := p.index[deciderID]; exists {
		return fmt.Errorf("%w: decider %s already scheduled", ErrDownstreamSlotOccupied, deciderID)
	}

	decider := Match{
		ID:             deciderID,
		TournamentID:   m.TournamentID,
		BracketSide:    FinalsSide,
		RoundNumber:    2,
		MatchOrder:     1,
		Participant1ID: utils.Ptr(loser),
		Participant2ID: utils.Ptr(winner),
		Status:         MatchScheduled,
		BestOfSets:     m.BestOfSets,
	}

	m.WinnerNextMatchID = utils.Ptr(deciderID)
	m.WinnerNextSlot = utils.Ptr(2)
	m.LoserNextMatchID = utils.Ptr(deciderID)
	m.LoserNextSlot = utils.Ptr(1)

	p.changed[m.ID] = &m
	p.update.Updated = append(p.update.Updated, m)
	p.update.Created = append(p.update.Created, decider)
	p.update.Ready = append(p.update.Ready, deciderID)
	return nil
}

func (p *progression) place(matchID uuid.UUID, slot int, participant uuid.UUID) error {
	target, ok := p.changed[matchID]
	if !ok {
		m, found := p.index[matchID]
		if !found {
			return fmt.Errorf("%w: next match %s does not exist", ErrInconsistentBracket, matchID)
		}
		target = &m
	}

	if slot != 1 && slot != 2 {
		return fmt.Errorf("%w: match %s has no slot %d", ErrInconsistentBracket, matchID, slot)
	}
	if target.Slot(slot) != nil || target.Status.Terminal() {
		return fmt.Errorf("%w: match %s slot %d", ErrDownstreamSlotOccupied, matchID, slot)
	}

	target.setSlot(slot, participant)
	p.changed[matchID] = target
	if target.Ready() {
		p.update.Ready = append(p.update.Ready, matchID)
	}
	return nil
}

// finish copies the changed matches out in a stable order.
func (p *progression) finish() *ProgressionUpdate {
	seen := make(map[uuid.UUID]bool, len(p.update.Updated))
	for _, m := range p.update.Updated {
		seen[m.ID] = true
	}
	for _, id := range p.order() {
		if !seen[id] {
			p.update.Updated = append(p.update.Updated, *p.changed[id])
		}
	}
	return p.update
}

func (p *progression) order() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.changed))
	for id := range p.changed {
		ids = append(ids, id)
	}
	SortMatchIDs(ids, p.index)
	return ids
}

func (p *progression) allGroupMatchesTerminal() bool {
	for _, m := range p.index {
		if m.BracketSide == GroupSide && !m.IsBye && !m.Status.Terminal() {
			return false
		}
	}
	return true
}
