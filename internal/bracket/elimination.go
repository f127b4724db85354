package bracket

import (
	"math"

	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// generateRound1Pairs returns zero-based seed indexes for each first round
// match, so that seed 0 and seed 1 can only meet in the final.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

type feedKind int

const (
	feedSeed feedKind = iota
	feedWinner
	feedLoser
)

// feed says where a slot's participant comes from: a seed index, or the
// winner or loser of an earlier planned match.
type feed struct {
	kind feedKind
	seed int
	from int
}

type plannedMatch struct {
	match Match
	feeds [2]feed
}

type plan struct {
	matches []plannedMatch
	index   map[[3]int]int
}

func sideKey(side BracketSide) int {
	switch side {
	case WinnersSide:
		return 0
	case LosersSide:
		return 1
	case FinalsSide:
		return 2
	default:
		return 3
	}
}

func (p *plan) add(m Match, a, b feed) {
	p.index[[3]int{sideKey(m.BracketSide), m.RoundNumber, m.MatchOrder}] = len(p.matches)
	p.matches = append(p.matches, plannedMatch{match: m, feeds: [2]feed{a, b}})
}

func (p *plan) at(side BracketSide, round, order int) int {
	return p.index[[3]int{sideKey(side), round, order}]
}

func seedFeed(i int) feed { return feed{kind: feedSeed, seed: i} }
func winnerOf(from int) feed { return feed{kind: feedWinner, from: from} }
func loserOf(from int) feed { return feed{kind: feedLoser, from: from} }

// buildElimination lays out the winners bracket and, for double elimination,
// the losers bracket and grand final. Matches are planned in dependency order
// so every feed refers to an earlier entry.
func buildElimination(participants []Participant, double bool, opts Options) []Match {
	bracketSize := calcBracketSize(len(participants))
	totalRounds := int(math.Log2(float64(bracketSize)))

	p := &plan{index: make(map[[3]int]int)}

	for i, pair := range generateRound1Pairs(bracketSize) {
		p.add(newMatch(opts, WinnersSide, 1, i+1), seedFeed(pair[0]), seedFeed(pair[1]))
	}
	for r := 2; r <= totalRounds; r++ {
		matchesInRound := bracketSize >> r
		for i := 1; i <= matchesInRound; i++ {
			p.add(newMatch(opts, WinnersSide, r, i),
				winnerOf(p.at(WinnersSide, r-1, 2*i-1)),
				winnerOf(p.at(WinnersSide, r-1, 2*i)))
		}
	}

	if double {
		planLosersBracket(p, bracketSize, totalRounds, opts)
	}

	return resolve(p, participants)
}

// planLosersBracket follows the usual drop chart. For a bracket of 2^k slots
// the losers bracket has 2(k-1) rounds. Odd rounds halve the field among
// losers-bracket survivors (round 1 pairs up the winners round 1 losers), even
// rounds 2j take the losers of winners round j+1. The drop order is reversed
// on alternate drop rounds so early opponents do not meet again straight away.
func planLosersBracket(p *plan, bracketSize, totalRounds int, opts Options) {
	wbFinal := p.at(WinnersSide, totalRounds, 1)
	lbRounds := 2 * (totalRounds - 1)

	for r := 1; r <= lbRounds; r++ {
		matchesInRound := bracketSize >> ((r+1)/2 + 1)
		for i := 1; i <= matchesInRound; i++ {
			m := newMatch(opts, LosersSide, r, i)
			switch {
			case r == 1:
				p.add(m,
					loserOf(p.at(WinnersSide, 1, 2*i-1)),
					loserOf(p.at(WinnersSide, 1, 2*i)))
			case r%2 == 0:
				j := r / 2
				pos := i
				if j%2 == 1 {
					pos = matchesInRound + 1 - i
				}
				p.add(m,
					winnerOf(p.at(LosersSide, r-1, i)),
					loserOf(p.at(WinnersSide, j+1, pos)))
			default:
				p.add(m,
					winnerOf(p.at(LosersSide, r-1, 2*i-1)),
					winnerOf(p.at(LosersSide, r-1, 2*i)))
			}
		}
	}

	// With only two entrants there is no losers bracket and the winners
	// final loser goes straight to the grand final.
	challenger := loserOf(wbFinal)
	if lbRounds > 0 {
		challenger = winnerOf(p.at(LosersSide, lbRounds, 1))
	}
	p.add(newMatch(opts, FinalsSide, 1, 1), winnerOf(wbFinal), challenger)
}

type slotKind int

const (
	slotDead slotKind = iota
	slotFilled
	slotPending
)

// source is the match whose result will fill a pending slot.
type source struct {
	match int
	loser bool
}

type slotState struct {
	kind        slotKind
	participant uuid.UUID
	src         source
}

type outcomeKind int

const (
	outcomeReal outcomeKind = iota
	// One participant and no opponent: advanced without playing.
	outcomeWalkover
	// One pending slot and no opponent: the pending participant skips this match.
	outcomePassThrough
	// Nobody will ever reach this match.
	outcomeVoid
)

type outcome struct {
	kind        outcomeKind
	participant uuid.UUID
	src         source
}

// resolve walks the plan once, turning every slot that can never be filled
// into a bye. Walkovers are pushed forward immediately, and pass-through
// matches re-point their feeder at the next real match, so the progression
// engine never sees a bye.
func resolve(p *plan, participants []Participant) []Match {
	outcomes := make([]outcome, len(p.matches))
	matches := make([]Match, len(p.matches))

	stateOf := func(f feed) slotState {
		switch f.kind {
		case feedSeed:
			if f.seed < len(participants) {
				return slotState{kind: slotFilled, participant: participants[f.seed].ID}
			}
			return slotState{kind: slotDead}
		case feedWinner:
			o := outcomes[f.from]
			switch o.kind {
			case outcomeReal:
				return slotState{kind: slotPending, src: source{match: f.from}}
			case outcomeWalkover:
				return slotState{kind: slotFilled, participant: o.participant}
			case outcomePassThrough:
				return slotState{kind: slotPending, src: o.src}
			}
			return slotState{kind: slotDead}
		default:
			if outcomes[f.from].kind == outcomeReal {
				return slotState{kind: slotPending, src: source{match: f.from, loser: true}}
			}
			return slotState{kind: slotDead}
		}
	}

	for i, pm := range p.matches {
		m := pm.match
		states := [2]slotState{stateOf(pm.feeds[0]), stateOf(pm.feeds[1])}

		for s, st := range states {
			if st.kind == slotFilled {
				m.setSlot(s+1, st.participant)
			}
		}

		switch {
		case states[0].kind == slotDead && states[1].kind == slotDead:
			outcomes[i] = outcome{kind: outcomeVoid}
			m.IsBye = true
			m.Status = MatchCompleted

		case states[0].kind == slotDead || states[1].kind == slotDead:
			live := states[0]
			if live.kind == slotDead {
				live = states[1]
			}
			m.IsBye = true
			m.Status = MatchCompleted
			if live.kind == slotFilled {
				outcomes[i] = outcome{kind: outcomeWalkover, participant: live.participant}
				m.WinnerID = utils.Ptr(live.participant)
			} else {
				outcomes[i] = outcome{kind: outcomePassThrough, src: live.src}
			}

		default:
			outcomes[i] = outcome{kind: outcomeReal}
			for s, st := range states {
				if st.kind != slotPending {
					continue
				}
				link(&matches[st.src.match], st.src.loser, m.ID, s+1)
			}
		}

		matches[i] = m
	}

	return matches
}

func link(from *Match, loser bool, to uuid.UUID, slot int) {
	if loser {
		from.LoserNextMatchID = utils.Ptr(to)
		from.LoserNextSlot = utils.Ptr(slot)
		return
	}
	from.WinnerNextMatchID = utils.Ptr(to)
	from.WinnerNextSlot = utils.Ptr(slot)
}
