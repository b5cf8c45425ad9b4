package scoring

import (
	"fmt"
	"math/rand/v2"
)

// cmsMixPrime mixes a two-key input before it reaches the row-specific
// hash parameters. Any small prime works; this is the value the
// reference implementation uses.
const cmsMixPrime = 104729

// CMS is a fixed-shape count-min sketch with double-precision cells. The
// sketches that track one statistic inside a scoring core (its current,
// total and, in FilteringCore, score sketch) are built from the same
// template (see newCMSLike) so a single precomputed row-index vector
// applies to every one of them — the "same-layout assumption". The edge,
// source and destination groups each have their own template and their
// own index vector.
type CMS struct {
	r, c   int
	param1 []uint64
	param2 []uint64
	cells  []float64
}

// newCMS allocates an r-by-c sketch and draws fresh hash parameters from
// rng. If rng is nil, a deterministic default source is used.
func newCMS(r, c int, rng *rand.Rand) (*CMS, error) {
	if r <= 0 || c <= 0 {
		return nil, fmt.Errorf("%w: rows and columns must be positive (got r=%d, c=%d)", ErrConstruction, r, c)
	}
	if rng == nil {
		rng = defaultRand()
	}

	param1 := make([]uint64, r)
	param2 := make([]uint64, r)
	for i := 0; i < r; i++ {
		// param1[i] must never be zero: it multiplies the hashed key,
		// and ×0 would collapse every key in that row to column 0.
		for param1[i] == 0 {
			param1[i] = rng.Uint64()
		}
		param2[i] = rng.Uint64()
	}

	return &CMS{
		r:      r,
		c:      c,
		param1: param1,
		param2: param2,
		cells:  make([]float64, r*c),
	}, nil
}

// newCMSLike builds a sketch sharing other's dimensions and hash
// parameters but with independent, zeroed cells. Used to pair a
// "current" sketch with a "total" sketch that must hash identically.
func newCMSLike(other *CMS) *CMS {
	return &CMS{
		r:      other.r,
		c:      other.c,
		param1: append([]uint64(nil), other.param1...),
		param2: append([]uint64(nil), other.param2...),
		cells:  make([]float64, other.r*other.c),
	}
}

// Rows reports the sketch's row count.
func (m *CMS) Rows() int { return m.r }

// Columns reports the sketch's column count.
func (m *CMS) Columns() int { return m.c }

// Hash computes, for each row i, a flat cell offset for the key (a, b)
// and writes it to indexOut. Passing b == 0 hashes a single key (used
// for the node-centric sketches in RelationalCore and FilteringCore).
//
// Arithmetic is performed on wrapping uint64s, matching the reference
// implementation's modulo-2^64 semantics; because the domain is
// unsigned, the result of the modulus is always already in [0, c) and
// needs no further folding.
func (m *CMS) Hash(indexOut []int, a, b uint64) {
	for i := 0; i < m.r; i++ {
		h := (a+cmsMixPrime*b)*m.param1[i] + m.param2[i]
		indexOut[i] = i*m.c + int(h%uint64(m.c))
	}
}

// Query returns the minimum cell value across index, the classic
// count-min point estimate.
func (m *CMS) Query(index []int) float64 {
	least := m.cells[index[0]]
	for _, idx := range index[1:] {
		if m.cells[idx] < least {
			least = m.cells[idx]
		}
	}
	return least
}

// Assign sets every cell referenced by index to v and returns v.
func (m *CMS) Assign(index []int, v float64) float64 {
	for _, idx := range index {
		m.cells[idx] = v
	}
	return v
}

// Add adds by to every cell referenced by index.
func (m *CMS) Add(index []int, by float64) {
	for _, idx := range index {
		m.cells[idx] += by
	}
}

// ClearAll sets every cell to v.
func (m *CMS) ClearAll(v float64) {
	for i := range m.cells {
		m.cells[i] = v
	}
}

// MultiplyAll multiplies every cell by k.
func (m *CMS) MultiplyAll(k float64) {
	for i := range m.cells {
		m.cells[i] *= k
	}
}
