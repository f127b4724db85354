package bracket

import (
	"slices"
)

// Round is one column of a rendered bracket.
type Round struct {
	Side    BracketSide `json:"side" yaml:"side"`
	Number  int         `json:"number" yaml:"number"`
	Matches []Match     `json:"matches" yaml:"matches"`
}

// Layout groups matches into rounds per bracket side, in display order:
// winners, losers, finals, then group. Matches within a round keep their
// match order.
func Layout(matches []Match) []Round {
	sorted := slices.Clone(matches)
	SortMatches(sorted)

	var rounds []Round
	for _, m := range sorted {
		if n := len(rounds); n > 0 && rounds[n-1].Side == m.BracketSide && rounds[n-1].Number == m.RoundNumber {
			rounds[n-1].Matches = append(rounds[n-1].Matches, m)
			continue
		}
		rounds = append(rounds, Round{Side: m.BracketSide, Number: m.RoundNumber, Matches: []Match{m}})
	}
	return rounds
}
