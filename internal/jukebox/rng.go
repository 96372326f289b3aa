package jukebox

import "math/rand/v2"

// Source is a pluggable uniform-[0,1) generator (spec.md §9). No
// third-party RNG library appears anywhere in the retrieval pack, so the
// Selector is built directly on the standard library's math/rand/v2
// behind this one-method seam, which is what tests substitute a seeded
// deterministic source for (spec.md §8 property 5).
type Source func() float64

// NewSource returns a Source backed by a seeded math/rand/v2 generator,
// suitable for deterministic tests.
func NewSource(seed1, seed2 uint64) Source {
	r := rand.New(rand.NewPCG(seed1, seed2))
	return r.Float64
}

// SystemSource returns a Source backed by the unseeded top-level
// math/rand/v2 functions, suitable for release use.
func SystemSource() Source {
	return rand.Float64
}
