package bracket

// buildRoundRobin schedules every pairing once with the circle method: the
// first position stays fixed and the rest rotate one step each round. An odd
// field gets a phantom entrant, and whoever draws it sits the round out.
func buildRoundRobin(participants []Participant, opts Options) ([]Match, []Bye) {
	n := len(participants)
	slots := n
	if n%2 == 1 {
		slots++
	}

	positions := make([]int, slots)
	for i := range positions {
		positions[i] = i
	}

	matches := make([]Match, 0, n*(n-1)/2)
	var byes []Bye

	for r := 1; r < slots; r++ {
		order := 0
		for i := 0; i < slots/2; i++ {
			home, away := positions[i], positions[slots-1-i]
			// Alternate the fixed position between slots so nobody is always first.
			if i == 0 && r%2 == 0 {
				home, away = away, home
			}

			if home >= n || away >= n {
				sitting := home
				if sitting >= n {
					sitting = away
				}
				byes = append(byes, Bye{Round: r, ParticipantID: participants[sitting].ID})
				continue
			}

			order++
			m := newMatch(opts, GroupSide, r, order)
			p1, p2 := participants[home].ID, participants[away].ID
			m.Participant1ID = &p1
			m.Participant2ID = &p2
			matches = append(matches, m)
		}

		last := positions[slots-1]
		copy(positions[2:], positions[1:slots-1])
		positions[1] = last
	}

	return matches, byes
}
