package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTournamentLocks(t *testing.T) {
	locks := newTournamentLocks()
	a, b := uuid.New(), uuid.New()

	var mu sync.Mutex
	inside := map[uuid.UUID]int{}
	maxInside := map[uuid.UUID]int{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := a
		if i%2 == 1 {
			id = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(id)
			defer unlock()

			mu.Lock()
			inside[id]++
			maxInside[id] = max(maxInside[id], inside[id])
			mu.Unlock()

			mu.Lock()
			inside[id]--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside[a])
	assert.Equal(t, 1, maxInside[b])
	assert.Zero(t, locks.size(), "idle tournaments are forgotten")
}
