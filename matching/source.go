package matching

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type lockedSource struct {
	mu  sync.Mutex // *rand.Rand is not safe for concurrent use
	rnd *rand.Rand
}

// NewLockedSource returns a Source seeded with seed that can be shared
// between goroutines.
func NewLockedSource(seed uint64) Source {
	return &lockedSource{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewTimeSeededSource returns a shared Source seeded from the clock.
func NewTimeSeededSource() Source {
	return NewLockedSource(uint64(time.Now().UnixNano()))
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}
