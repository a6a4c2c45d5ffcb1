package optimizer

import (
	"math/rand"
	"sync"
)

// ExecutionPolicy decides whether an action attempt succeeds and how far
// the realized impact lands from the estimate.
type ExecutionPolicy interface {
	Succeeds(rate float64) bool
	ImpactMultiplier() float64
}

// DeterministicPolicy succeeds whenever the historical rate clears an
// even-odds bar and realizes exactly the estimated impact. It is the
// default so pipeline runs are reproducible.
type DeterministicPolicy struct{}

func (DeterministicPolicy) Succeeds(rate float64) bool { return rate >= 0.5 }
func (DeterministicPolicy) ImpactMultiplier() float64  { return 1.0 }

// RandomizedPolicy draws execution outcomes from a seeded source:
// success with the historical rate, realized impact between 80% and 120%
// of the estimate.
type RandomizedPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizedPolicy seeds a randomized policy.
func NewRandomizedPolicy(seed int64) *RandomizedPolicy {
	return &RandomizedPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomizedPolicy) Succeeds(rate float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < rate
}

func (p *RandomizedPolicy) ImpactMultiplier() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return 0.8 + p.rng.Float64()*0.4
}
