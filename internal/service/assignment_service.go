package service

import (
	"math/rand"
	"sync"
	"time"
)

// AssigneeCount is the number of staff members paired with a new ticket.
const AssigneeCount = 2

// AssignmentSelector picks a random subset of the eligible staff pool for a
// new ticket. The pool arrives flattened across support roles with
// duplicates preserved, so members holding several qualifying roles are
// proportionally more likely to be picked.
type AssignmentSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAssignmentSelector creates a selector seeded from the clock.
func NewAssignmentSelector() *AssignmentSelector {
	return &AssignmentSelector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewAssignmentSelectorWithSource creates a selector with a fixed source.
func NewAssignmentSelectorWithSource(src rand.Source) *AssignmentSelector {
	return &AssignmentSelector{rng: rand.New(src)}
}

// Pick returns up to n elements of pool, chosen without replacement via a
// uniform shuffle. Pools smaller than n yield what's available.
func (s *AssignmentSelector) Pick(pool []string, n int) []string {
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
