// Package progress tracks the completion percentage of a lesson session.
package progress

import (
	"math/rand/v2"
	"sync"
)

const (
	// InitialMin is the lowest starting percentage.
	InitialMin = 20
	// InitialSpan is the width of the starting range, [InitialMin, InitialMin+InitialSpan).
	InitialSpan = 50
	// Step is the gain for a correct quiz answer.
	Step = 30
	// Max is the completion ceiling.
	Max = 100
)

// Source supplies random integers in [0, n)
type Source interface {
	IntN(n int) int
}

// Tracker initialises and advances lesson progress
type Tracker struct {
	mu  sync.Mutex
	rng Source
}

// NewTracker creates a tracker drawing from rng. A nil rng uses the
// process-wide generator.
func NewTracker(rng Source) *Tracker {
	return &Tracker{rng: rng}
}

// NewSeededTracker creates a tracker with a deterministic PCG source
func NewSeededTracker(seed uint64) *Tracker {
	return NewTracker(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Init returns a fresh starting percentage for a lesson load.
// The value is redrawn on every load and never remembered.
func (t *Tracker) Init(lessonID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int
	if t.rng == nil {
		n = rand.IntN(InitialSpan)
	} else {
		n = t.rng.IntN(InitialSpan)
	}
	return InitialMin + n
}

// Increment applies a correct-answer gain, saturating at Max
func Increment(current int) int {
	return Advance(current, Step)
}

// Advance adds delta to current, clamped to [0, Max]. Negative deltas
// are ignored; progress never decreases.
func Advance(current, delta int) int {
	if delta < 0 {
		delta = 0
	}
	return Clamp(current + delta)
}

// Clamp bounds p to [0, Max]
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > Max {
		return Max
	}
	return p
}
