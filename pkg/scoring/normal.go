package scoring

import (
	"log"
	"math/rand/v2"
)

// NormalCore tracks edge-count statistics only: a current-tick sketch
// that resets at every tick boundary, and a total sketch that
// accumulates forever.
type NormalCore struct {
	numRow, numColumn int
	timestamp         uint64
	numCurrent        *CMS
	numTotal          *CMS
	index             []int
	outOfOrder        uint64
	logger            *log.Logger
}

// NewNormalCore constructs a NormalCore with the given sketch shape.
func NewNormalCore(numRow, numColumn int) (*NormalCore, error) {
	return newNormalCore(numRow, numColumn, nil)
}

// NewNormalCoreWithRand is like NewNormalCore but draws hash parameters
// from rng instead of the default deterministic source.
func NewNormalCoreWithRand(numRow, numColumn int, rng *rand.Rand) (*NormalCore, error) {
	return newNormalCore(numRow, numColumn, rng)
}

func newNormalCore(numRow, numColumn int, rng *rand.Rand) (*NormalCore, error) {
	current, err := newCMS(numRow, numColumn, rng)
	if err != nil {
		return nil, err
	}
	return &NormalCore{
		numRow:     numRow,
		numColumn:  numColumn,
		timestamp:  1,
		numCurrent: current,
		numTotal:   newCMSLike(current),
		index:      make([]int, numRow),
		logger:     log.Default(),
	}, nil
}

// SetLogger overrides the logger used for out-of-order timestamp
// warnings. Passing nil silences them.
func (n *NormalCore) SetLogger(logger *log.Logger) { n.logger = logger }

// OutOfOrderCount reports how many Observe calls arrived with a
// timestamp earlier than one already seen.
func (n *NormalCore) OutOfOrderCount() uint64 { return n.outOfOrder }

// ObserveStr hashes source and destination with HashString and defers
// to Observe.
func (n *NormalCore) ObserveStr(source, destination string, timestamp uint64) float64 {
	return n.Observe(HashString(source), HashString(destination), timestamp)
}

// Observe records one edge arriving at timestamp and returns its
// anomaly score. timestamp MUST be non-decreasing across calls; an
// out-of-order timestamp is accepted (no tick transition, no rollback
// of the stored timestamp) and logged.
func (n *NormalCore) Observe(source, destination, timestamp uint64) float64 {
	switch {
	case timestamp > n.timestamp:
		n.numCurrent.ClearAll(0)
		n.timestamp = timestamp
	case timestamp < n.timestamp:
		n.outOfOrder++
		if n.logger != nil {
			n.logger.Printf("scoring: out-of-order timestamp %d seen after %d, skipping tick transition", timestamp, n.timestamp)
		}
	}

	n.numCurrent.Hash(n.index, source, destination)
	n.numCurrent.Add(n.index, 1)
	n.numTotal.Add(n.index, 1)

	return computeScoreN(n.numCurrent.Query(n.index), n.numTotal.Query(n.index), float64(timestamp))
}
