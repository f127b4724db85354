package bracket

// SetWinner returns the winning slot of a set, or 0 while it is undecided. A
// set goes to whoever reaches tiebreakGames with a two game lead, or to the
// tiebreak winner at tiebreakGames+1 to tiebreakGames.
func SetWinner(s Set, tiebreakGames int) int {
	if tiebreakGames <= 0 {
		tiebreakGames = DefaultTiebreakGames
	}

	g1, g2 := s.Participant1Games, s.Participant2Games
	hi, lo, slot := g1, g2, 1
	if g2 > g1 {
		hi, lo, slot = g2, g1, 2
	}

	switch {
	case hi >= tiebreakGames && hi-lo >= 2:
		return slot
	case hi == tiebreakGames+1 && lo == tiebreakGames:
		return slot
	}
	return 0
}

// MatchWinnerFromSets returns the slot that has taken a majority of
// bestOfSets, or 0 if the sets do not decide the match yet.
func MatchWinnerFromSets(sets []Set, bestOfSets, tiebreakGames int) int {
	if bestOfSets <= 0 {
		bestOfSets = DefaultBestOfSets
	}
	needed := bestOfSets/2 + 1

	var won [3]int
	for _, s := range sets {
		won[SetWinner(s, tiebreakGames)]++
	}

	switch {
	case won[1] >= needed && won[1] > won[2]:
		return 1
	case won[2] >= needed && won[2] > won[1]:
		return 2
	}
	return 0
}
