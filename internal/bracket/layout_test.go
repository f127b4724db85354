package bracket

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_DoubleElimination(t *testing.T) {
	matches := build(t, makeParticipants(8), DoubleElimination).Matches
	shuffled := slices.Clone(matches)
	slices.Reverse(shuffled)

	rounds := Layout(shuffled)

	type column struct {
		side  BracketSide
		round int
		size  int
	}
	var got []column
	total := 0
	for _, r := range rounds {
		got = append(got, column{r.Side, r.Number, len(r.Matches)})
		total += len(r.Matches)
		for i, m := range r.Matches {
			assert.Equal(t, i+1, m.MatchOrder)
		}
	}
	assert.Equal(t, []column{
		{WinnersSide, 1, 4}, {WinnersSide, 2, 2}, {WinnersSide, 3, 1},
		{LosersSide, 1, 2}, {LosersSide, 2, 2}, {LosersSide, 3, 1}, {LosersSide, 4, 1},
		{FinalsSide, 1, 1},
	}, got)
	assert.Equal(t, len(matches), total)
}

func TestLayout_Empty(t *testing.T) {
	require.Empty(t, Layout(nil))
}
