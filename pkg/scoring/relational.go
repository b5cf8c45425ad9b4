package scoring

import (
	"fmt"
	"log"
	"math/rand/v2"
)

// DefaultFactor is the decay factor applied to current-tick sketches at
// each tick boundary in RelationalCore and FilteringCore when the
// caller does not specify one.
const DefaultFactor = 0.5

// RelationalCore extends NormalCore's edge-count tracking with
// per-source and per-destination node-count sketches, and decays
// (rather than clears) its current-tick sketches at each tick boundary
// so a bursty second consecutive tick stays visible.
type RelationalCore struct {
	numRow, numColumn int
	timestamp         uint64
	factor            float64

	numCurrentEdge, numTotalEdge               *CMS
	numCurrentSource, numTotalSource           *CMS
	numCurrentDestination, numTotalDestination *CMS

	indexEdge, indexSource, indexDestination []int

	outOfOrder uint64
	logger     *log.Logger
}

// NewRelationalCore constructs a RelationalCore. factor must be in
// (0, 1]; a factor of 0 selects DefaultFactor.
func NewRelationalCore(numRow, numColumn int, factor float64) (*RelationalCore, error) {
	return newRelationalCore(numRow, numColumn, factor, nil)
}

// NewRelationalCoreWithRand is like NewRelationalCore but draws hash
// parameters from rng instead of the default deterministic source.
func NewRelationalCoreWithRand(numRow, numColumn int, factor float64, rng *rand.Rand) (*RelationalCore, error) {
	return newRelationalCore(numRow, numColumn, factor, rng)
}

func newRelationalCore(numRow, numColumn int, factor float64, rng *rand.Rand) (*RelationalCore, error) {
	if factor == 0 {
		factor = DefaultFactor
	}
	if factor <= 0 || factor > 1 {
		return nil, fmt.Errorf("%w: factor must be in (0, 1] (got %v)", ErrConstruction, factor)
	}

	curEdge, err := newCMS(numRow, numColumn, rng)
	if err != nil {
		return nil, err
	}
	curSource, err := newCMS(numRow, numColumn, rng)
	if err != nil {
		return nil, err
	}
	curDestination, err := newCMS(numRow, numColumn, rng)
	if err != nil {
		return nil, err
	}

	return &RelationalCore{
		numRow:                numRow,
		numColumn:             numColumn,
		timestamp:             1,
		factor:                factor,
		numCurrentEdge:        curEdge,
		numTotalEdge:          newCMSLike(curEdge),
		numCurrentSource:      curSource,
		numTotalSource:        newCMSLike(curSource),
		numCurrentDestination: curDestination,
		numTotalDestination:   newCMSLike(curDestination),
		indexEdge:             make([]int, numRow),
		indexSource:           make([]int, numRow),
		indexDestination:      make([]int, numRow),
		logger:                log.Default(),
	}, nil
}

// SetLogger overrides the logger used for out-of-order timestamp
// warnings. Passing nil silences them.
func (r *RelationalCore) SetLogger(logger *log.Logger) { r.logger = logger }

// OutOfOrderCount reports how many Observe calls arrived with a
// timestamp earlier than one already seen.
func (r *RelationalCore) OutOfOrderCount() uint64 { return r.outOfOrder }

// ObserveStr hashes source and destination with HashString and defers
// to Observe.
func (r *RelationalCore) ObserveStr(source, destination string, timestamp uint64) float64 {
	return r.Observe(HashString(source), HashString(destination), timestamp)
}

// Observe records one edge arriving at timestamp and returns the
// maximum anomaly score across the edge, source and destination
// sketches.
func (r *RelationalCore) Observe(source, destination, timestamp uint64) float64 {
	switch {
	case timestamp > r.timestamp:
		r.numCurrentEdge.MultiplyAll(r.factor)
		r.numCurrentSource.MultiplyAll(r.factor)
		r.numCurrentDestination.MultiplyAll(r.factor)
		r.timestamp = timestamp
	case timestamp < r.timestamp:
		r.outOfOrder++
		if r.logger != nil {
			r.logger.Printf("scoring: out-of-order timestamp %d seen after %d, skipping tick transition", timestamp, r.timestamp)
		}
	}

	r.numCurrentEdge.Hash(r.indexEdge, source, destination)
	r.numCurrentEdge.Add(r.indexEdge, 1)
	r.numTotalEdge.Add(r.indexEdge, 1)

	r.numCurrentSource.Hash(r.indexSource, source, 0)
	r.numCurrentSource.Add(r.indexSource, 1)
	r.numTotalSource.Add(r.indexSource, 1)

	r.numCurrentDestination.Hash(r.indexDestination, destination, 0)
	r.numCurrentDestination.Add(r.indexDestination, 1)
	r.numTotalDestination.Add(r.indexDestination, 1)

	t := float64(timestamp)
	scoreEdge := computeScoreN(r.numCurrentEdge.Query(r.indexEdge), r.numTotalEdge.Query(r.indexEdge), t)
	scoreSource := computeScoreN(r.numCurrentSource.Query(r.indexSource), r.numTotalSource.Query(r.indexSource), t)
	scoreDestination := computeScoreN(r.numCurrentDestination.Query(r.indexDestination), r.numTotalDestination.Query(r.indexDestination), t)

	return max3(scoreEdge, scoreSource, scoreDestination)
}
