package bracket

import (
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

// Validate checks the structural invariants of a tournament's matches and
// reports every violation in one *InconsistentBracketError.
func Validate(matches []Match) error {
	v := &validator{index: make(map[uuid.UUID]Match, len(matches))}

	for _, m := range matches {
		if _, dup := v.index[m.ID]; dup {
			v.add(m.ID, "duplicate match id")
			continue
		}
		v.index[m.ID] = m
	}

	targets := make(map[[2]any]uuid.UUID)
	for _, m := range matches {
		v.checkMatch(m)
		v.checkPointer(m, "winner", m.WinnerNextMatchID, m.WinnerNextSlot, targets)
		v.checkPointer(m, "loser", m.LoserNextMatchID, m.LoserNextSlot, targets)
	}

	v.checkTree(matches)
	v.checkRoundRobin(matches)

	if len(v.violations) == 0 {
		return nil
	}
	return &InconsistentBracketError{Violations: v.violations}
}

type validator struct {
	index      map[uuid.UUID]Match
	violations []Violation
}

func (v *validator) add(id uuid.UUID, format string, args ...any) {
	v.violations = append(v.violations, Violation{MatchID: id, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) checkMatch(m Match) {
	if utils.Same(m.Participant1ID, m.Participant2ID) {
		v.add(m.ID, "participant %s fills both slots", *m.Participant1ID)
	}
	if m.WinnerID != nil && m.SlotOf(*m.WinnerID) == 0 {
		v.add(m.ID, "winner %s is not in the match", *m.WinnerID)
	}
	if m.IsBye {
		return
	}
	if m.Status.Decided() && m.WinnerID == nil {
		v.add(m.ID, "%s without a winner", m.Status)
	}
	if (m.Status == MatchInProgress || m.Status.Decided()) && !m.Ready() {
		v.add(m.ID, "%s while waiting for a participant", m.Status)
	}
}

func (v *validator) checkPointer(m Match, kind string, next *uuid.UUID, slot *int, targets map[[2]any]uuid.UUID) {
	if next == nil && slot == nil {
		return
	}
	if next == nil || slot == nil {
		v.add(m.ID, "%s pointer is missing its match or slot", kind)
		return
	}
	if m.IsBye {
		v.add(m.ID, "bye has a %s pointer", kind)
	}
	if *slot != 1 && *slot != 2 {
		v.add(m.ID, "%s pointer has slot %d", kind, *slot)
	}
	if *next == m.ID {
		v.add(m.ID, "%s pointer targets itself", kind)
	}
	if _, ok := v.index[*next]; !ok {
		v.add(m.ID, "%s pointer targets unknown match %s", kind, *next)
	}

	key := [2]any{*next, *slot}
	if other, taken := targets[key]; taken {
		v.add(m.ID, "%s pointer shares match %s slot %d with match %s", kind, *next, *slot, other)
	}
	targets[key] = m.ID
}

// checkTree follows winner pointers through the elimination matches. They
// must end, without cycles, in exactly one final match.
func (v *validator) checkTree(matches []Match) {
	var roots []uuid.UUID
	var nodes []Match
	for _, m := range matches {
		if m.IsBye || m.BracketSide == GroupSide {
			continue
		}
		nodes = append(nodes, m)
		if m.WinnerNextMatchID == nil {
			roots = append(roots, m.ID)
		}
	}
	if len(nodes) == 0 {
		return
	}

	switch len(roots) {
	case 0:
		v.add(uuid.Nil, "no final match")
	case 1:
	default:
		v.add(uuid.Nil, "%d matches have no next match, expected one final", len(roots))
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uuid.UUID]int, len(nodes))
	for _, start := range nodes {
		var path []uuid.UUID
		id := start.ID
		for {
			if state[id] == done {
				break
			}
			if state[id] == visiting {
				v.add(id, "winner pointers form a cycle")
				break
			}
			state[id] = visiting
			path = append(path, id)

			m, ok := v.index[id]
			if !ok || m.WinnerNextMatchID == nil {
				break
			}
			id = *m.WinnerNextMatchID
		}
		for _, p := range path {
			state[p] = done
		}
	}
}

func (v *validator) checkRoundRobin(matches []Match) {
	pairs := make(map[[2]uuid.UUID]uuid.UUID)
	busy := make(map[[2]any]uuid.UUID)

	for _, m := range matches {
		if m.BracketSide != GroupSide || m.IsBye {
			continue
		}
		if !m.Ready() {
			v.add(m.ID, "round robin match without two participants")
			continue
		}

		a, b := *m.Participant1ID, *m.Participant2ID
		if a.String() > b.String() {
			a, b = b, a
		}
		pair := [2]uuid.UUID{a, b}
		if other, ok := pairs[pair]; ok {
			v.add(m.ID, "pairing already played in match %s", other)
		}
		pairs[pair] = m.ID

		for _, p := range pair {
			key := [2]any{m.RoundNumber, p}
			if other, ok := busy[key]; ok {
				v.add(m.ID, "participant %s also plays match %s in round %d", p, other, m.RoundNumber)
			}
			busy[key] = m.ID
		}
	}
}
