package scoring

import "math/rand/v2"

// defaultSeed makes hash-parameter draws reproducible across runs unless
// a caller supplies their own source.
const defaultSeed = 42

func defaultRand() *rand.Rand {
	return rand.New(rand.NewPCG(defaultSeed, defaultSeed))
}
