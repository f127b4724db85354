package bracket

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

func compareMatches(a, b Match) int {
	return cmp.Or(
		cmp.Compare(sideKey(a.BracketSide), sideKey(b.BracketSide)),
		cmp.Compare(a.RoundNumber, b.RoundNumber),
		cmp.Compare(a.MatchOrder, b.MatchOrder),
	)
}

// SortMatches orders matches by side, round and position in the round.
func SortMatches(matches []Match) {
	slices.SortStableFunc(matches, compareMatches)
}

func SortMatchIDs(ids []uuid.UUID, index map[uuid.UUID]Match) {
	slices.SortStableFunc(ids, func(a, b uuid.UUID) int {
		return cmp.Or(compareMatches(index[a], index[b]), slices.Compare(a[:], b[:]))
	})
}
