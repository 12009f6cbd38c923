package utils

import (
	"math/rand/v2"
	"sync"
)

// Random is the source of every probabilistic decision made while replying.
// Implementations must be safe for concurrent use.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// DefaultRandom returns the process-wide random source.
func DefaultRandom() Random { return globalRandom{} }

// SeededRandom is a deterministic, mutex-guarded generator.
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom returns a reproducible Random.
func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *SeededRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *SeededRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Pick returns a uniformly chosen element, or false for an empty slice.
func Pick[T any](r Random, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[r.IntN(len(items))], true
}
