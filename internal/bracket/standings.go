package bracket

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
)

type StandingsRow struct {
	ParticipantID uuid.UUID `json:"participant_id" yaml:"participant_id"`
	Name          string    `json:"name" yaml:"name"`
	Seed          int       `json:"seed" yaml:"seed"`
	MatchesPlayed int       `json:"matches_played" yaml:"matches_played"`
	MatchesWon    int       `json:"matches_won" yaml:"matches_won"`
	MatchesLost   int       `json:"matches_lost" yaml:"matches_lost"`
	SetsWon       int       `json:"sets_won" yaml:"sets_won"`
	SetsLost      int       `json:"sets_lost" yaml:"sets_lost"`
	GamesWon      int       `json:"games_won" yaml:"games_won"`
	GamesLost     int       `json:"games_lost" yaml:"games_lost"`
	WinPercentage float64   `json:"win_percentage" yaml:"win_percentage"`
	Rank          int       `json:"rank" yaml:"rank"`
}

type tieBreak int

const (
	byMatchWins tieBreak = iota
	byHeadToHead
	bySetWins
	byGameWins
	bySeed
)

type standings struct {
	rows       map[uuid.UUID]*StandingsRow
	headToHead map[[2]uuid.UUID]int
}

// ComputeStandings ranks participants of a round robin from its decided
// matches. Order is by match win percentage, then head to head when exactly
// two are tied, then set and game win percentage, then seed. Each tie-break
// only splits a group that is still level after the previous one. Anyone
// without a played match ranks last. The result does not depend on the order
// of matches or sets.
func ComputeStandings(participants []Participant, matches []Match, sets []Set, tiebreakGames int) []StandingsRow {
	st := &standings{
		rows:       make(map[uuid.UUID]*StandingsRow, len(participants)),
		headToHead: make(map[[2]uuid.UUID]int),
	}
	for _, p := range participants {
		st.row(p.ID).Name = p.Name
		st.row(p.ID).Seed = p.Seed
	}

	setsByMatch := make(map[uuid.UUID][]Set)
	for _, s := range sets {
		setsByMatch[s.MatchID] = append(setsByMatch[s.MatchID], s)
	}

	for _, m := range matches {
		if m.IsBye || !m.Status.Decided() || m.WinnerID == nil || !m.Ready() || m.SlotOf(*m.WinnerID) == 0 {
			continue
		}
		st.record(m, setsByMatch[m.ID], tiebreakGames)
	}

	var played, unplayed []*StandingsRow
	for _, r := range st.rows {
		if r.MatchesPlayed > 0 {
			r.WinPercentage = float64(r.MatchesWon) / float64(r.MatchesPlayed)
			played = append(played, r)
		} else {
			unplayed = append(unplayed, r)
		}
	}
	slices.SortFunc(played, compareSeed)
	slices.SortFunc(unplayed, compareSeed)

	ordered := append(st.rank(played, byMatchWins), unplayed...)
	out := make([]StandingsRow, len(ordered))
	for i, r := range ordered {
		r.Rank = i + 1
		out[i] = *r
	}
	return out
}

func (st *standings) row(id uuid.UUID) *StandingsRow {
	r, ok := st.rows[id]
	if !ok {
		r = &StandingsRow{ParticipantID: id}
		st.rows[id] = r
	}
	return r
}

func (st *standings) record(m Match, sets []Set, tiebreakGames int) {
	p1, p2 := st.row(*m.Participant1ID), st.row(*m.Participant2ID)
	winner := *m.WinnerID
	loser := *m.Loser()

	st.row(winner).MatchesWon++
	st.row(loser).MatchesLost++
	p1.MatchesPlayed++
	p2.MatchesPlayed++
	st.headToHead[[2]uuid.UUID{winner, loser}]++

	for _, s := range sets {
		p1.GamesWon += s.Participant1Games
		p1.GamesLost += s.Participant2Games
		p2.GamesWon += s.Participant2Games
		p2.GamesLost += s.Participant1Games

		switch setWinnerSlot(m, s, tiebreakGames) {
		case 1:
			p1.SetsWon++
			p2.SetsLost++
		case 2:
			p2.SetsWon++
			p1.SetsLost++
		}
	}
}

func setWinnerSlot(m Match, s Set, tiebreakGames int) int {
	if s.WinnerID != nil {
		return m.SlotOf(*s.WinnerID)
	}
	return SetWinner(s, tiebreakGames)
}

// rank orders a group that is tied on every earlier tie-break.
func (st *standings) rank(group []*StandingsRow, level tieBreak) []*StandingsRow {
	if len(group) <= 1 {
		return group
	}

	switch level {
	case byHeadToHead:
		if len(group) == 2 {
			a, b := group[0], group[1]
			aWins := st.headToHead[[2]uuid.UUID{a.ParticipantID, b.ParticipantID}]
			bWins := st.headToHead[[2]uuid.UUID{b.ParticipantID, a.ParticipantID}]
			if aWins > bWins {
				return []*StandingsRow{a, b}
			}
			if bWins > aWins {
				return []*StandingsRow{b, a}
			}
		}
		return st.rank(group, bySetWins)
	case bySeed:
		slices.SortFunc(group, compareSeed)
		return group
	}

	compare := percentageComparer(level)
	slices.SortStableFunc(group, compare)

	out := make([]*StandingsRow, 0, len(group))
	for start := 0; start < len(group); {
		end := start + 1
		for end < len(group) && compare(group[start], group[end]) == 0 {
			end++
		}
		out = append(out, st.rank(group[start:end], level+1)...)
		start = end
	}
	return out
}

// percentageComparer sorts by descending won/played, compared by cross
// multiplication so equal ratios are exactly equal.
func percentageComparer(level tieBreak) func(a, b *StandingsRow) int {
	counts := func(r *StandingsRow) (int, int) {
		switch level {
		case bySetWins:
			return r.SetsWon, r.SetsWon + r.SetsLost
		case byGameWins:
			return r.GamesWon, r.GamesWon + r.GamesLost
		}
		return r.MatchesWon, r.MatchesPlayed
	}

	return func(a, b *StandingsRow) int {
		aWon, aPlayed := counts(a)
		bWon, bPlayed := counts(b)
		if aPlayed == 0 {
			aWon, aPlayed = 0, 1
		}
		if bPlayed == 0 {
			bWon, bPlayed = 0, 1
		}
		return cmp.Compare(bWon*aPlayed, aWon*bPlayed)
	}
}

func compareSeed(a, b *StandingsRow) int {
	seedKey := func(r *StandingsRow) int {
		if r.Seed <= 0 {
			return math.MaxInt
		}
		return r.Seed
	}
	return cmp.Or(
		cmp.Compare(seedKey(a), seedKey(b)),
		slices.Compare(a.ParticipantID[:], b.ParticipantID[:]),
	)
}
