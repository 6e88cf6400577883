package random

import (
	"golang.org/x/exp/rand"
)

// Randomizer is the single process-wide source of randomness. Rating
// tie-breaks, node permutations and queue ties all draw from it, so two runs
// with the same seed replay the same decisions.
type Randomizer struct {
	rng *rand.Rand
}

func New(seed int64) *Randomizer {
	return &Randomizer{
		rng: rand.New(rand.NewSource(uint64(seed))),
	}
}

func (r *Randomizer) Intn(n int) int {
	return r.rng.Intn(n)
}

func (r *Randomizer) Float64() float64 {
	return r.rng.Float64()
}

func (r *Randomizer) FlipCoin() bool {
	return r.rng.Intn(2) == 1
}

func (r *Randomizer) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// Permutation returns ids 0..n-1 in random order.
func (r *Randomizer) Permutation(n int) []int {
	perm := r.rng.Perm(n)
	return perm
}
