package scoring

import (
	"fmt"
	"log"
	"math/rand/v2"
)

// FilteringCore extends RelationalCore with a feedback loop: cells whose
// last emitted score fell below threshold are "innocent" and fold their
// current-tick mass into the total on the next tick boundary; cells at
// or above threshold are "suspect" and have their total extrapolated
// forward from the historical per-tick mean instead, so a single
// anomalous tick doesn't corrupt the long-term baseline.
type FilteringCore struct {
	numRow, numColumn int
	timestamp         uint64
	factor            float64
	threshold         float64

	numCurrentEdge, numTotalEdge, scoreEdge               *CMS
	numCurrentSource, numTotalSource, scoreSource         *CMS
	numCurrentDestination, numTotalDestination, scoreDest *CMS

	indexEdge, indexSource, indexDestination []int

	timestampReciprocal float64
	shouldMerge         []bool

	outOfOrder uint64
	logger     *log.Logger
}

// NewFilteringCore constructs a FilteringCore. threshold must be
// positive. factor must be in (0, 1]; a factor of 0 selects
// DefaultFactor.
func NewFilteringCore(numRow, numColumn int, threshold, factor float64) (*FilteringCore, error) {
	return newFilteringCore(numRow, numColumn, threshold, factor, nil)
}

// NewFilteringCoreWithRand is like NewFilteringCore but draws hash
// parameters from rng instead of the default deterministic source.
func NewFilteringCoreWithRand(numRow, numColumn int, threshold, factor float64, rng *rand.Rand) (*FilteringCore, error) {
	return newFilteringCore(numRow, numColumn, threshold, factor, rng)
}

func newFilteringCore(numRow, numColumn int, threshold, factor float64, rng *rand.Rand) (*FilteringCore, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive (got %v)", ErrConstruction, threshold)
	}
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

	return &FilteringCore{
		numRow:                numRow,
		numColumn:             numColumn,
		timestamp:             1,
		factor:                factor,
		threshold:             threshold,
		numCurrentEdge:        curEdge,
		numTotalEdge:          newCMSLike(curEdge),
		scoreEdge:             newCMSLike(curEdge),
		numCurrentSource:      curSource,
		numTotalSource:        newCMSLike(curSource),
		scoreSource:           newCMSLike(curSource),
		numCurrentDestination: curDestination,
		numTotalDestination:   newCMSLike(curDestination),
		scoreDest:             newCMSLike(curDestination),
		indexEdge:             make([]int, numRow),
		indexSource:           make([]int, numRow),
		indexDestination:      make([]int, numRow),
		timestampReciprocal:   0,
		shouldMerge:           make([]bool, numRow*numColumn),
		logger:                log.Default(),
	}, nil
}

// SetLogger overrides the logger used for out-of-order timestamp
// warnings. Passing nil silences them.
func (f *FilteringCore) SetLogger(logger *log.Logger) { f.logger = logger }

// OutOfOrderCount reports how many Observe calls arrived with a
// timestamp earlier than one already seen.
func (f *FilteringCore) OutOfOrderCount() uint64 { return f.outOfOrder }

// ObserveStr hashes source and destination with HashString and defers
// to Observe.
func (f *FilteringCore) ObserveStr(source, destination string, timestamp uint64) float64 {
	return f.Observe(HashString(source), HashString(destination), timestamp)
}

// Observe records one edge arriving at timestamp and returns the
// maximum anomaly score across the edge, source and destination
// sketches.
func (f *FilteringCore) Observe(source, destination, timestamp uint64) float64 {
	switch {
	case timestamp > f.timestamp:
		f.conditionalMerge(f.numCurrentEdge, f.numTotalEdge, f.scoreEdge)
		f.conditionalMerge(f.numCurrentSource, f.numTotalSource, f.scoreSource)
		f.conditionalMerge(f.numCurrentDestination, f.numTotalDestination, f.scoreDest)

		f.numCurrentEdge.MultiplyAll(f.factor)
		f.numCurrentSource.MultiplyAll(f.factor)
		f.numCurrentDestination.MultiplyAll(f.factor)

		f.timestampReciprocal = 1 / float64(timestamp-1)
		f.timestamp = timestamp
	case timestamp < f.timestamp:
		f.outOfOrder++
		if f.logger != nil {
			f.logger.Printf("scoring: out-of-order timestamp %d seen after %d, skipping tick transition", timestamp, f.timestamp)
		}
	}

	f.numCurrentEdge.Hash(f.indexEdge, source, destination)
	f.numCurrentEdge.Add(f.indexEdge, 1)

	f.numCurrentSource.Hash(f.indexSource, source, 0)
	f.numCurrentSource.Add(f.indexSource, 1)

	f.numCurrentDestination.Hash(f.indexDestination, destination, 0)
	f.numCurrentDestination.Add(f.indexDestination, 1)

	t := float64(timestamp)
	scoreEdge := computeScoreF(f.numCurrentEdge.Query(f.indexEdge), f.numTotalEdge.Query(f.indexEdge), t)
	scoreSource := computeScoreF(f.numCurrentSource.Query(f.indexSource), f.numTotalSource.Query(f.indexSource), t)
	scoreDestination := computeScoreF(f.numCurrentDestination.Query(f.indexDestination), f.numTotalDestination.Query(f.indexDestination), t)

	f.scoreEdge.Assign(f.indexEdge, scoreEdge)
	f.scoreSource.Assign(f.indexSource, scoreSource)
	f.scoreDest.Assign(f.indexDestination, scoreDestination)

	return max3(scoreEdge, scoreSource, scoreDestination)
}

// conditionalMerge folds each cell's current-tick mass into its total
// when the cell's last emitted score was below threshold ("innocent"),
// and otherwise extrapolates the total forward at the prior per-tick
// rate, leaving current untouched either way. This runs BEFORE
// MultiplyAll decays current, so the merged mass is the pre-decay
// current value.
func (f *FilteringCore) conditionalMerge(current, total, score *CMS) {
	for i, s := range score.cells {
		f.shouldMerge[i] = s < f.threshold
	}
	for i := range total.cells {
		if f.shouldMerge[i] {
			total.cells[i] += current.cells[i]
		} else {
			total.cells[i] += total.cells[i] * f.timestampReciprocal
		}
	}
}
