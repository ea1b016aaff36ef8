package util

import "math/rand"

// New returns a rand.Rand for seed; 0 is treated as 1 so the zero value of
// a config still gives a reproducible run.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// JobSeed derives the seed of the i-th independent run from a base seed.
// It depends only on i, so results do not change with the worker count.
func JobSeed(seed int64, i int) int64 {
	return seed + int64(i)*7919
}
