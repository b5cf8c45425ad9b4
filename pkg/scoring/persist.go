package scoring

import (
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
)

// cmsState is the on-disk shape of one CMS: dimensions, hash parameters
// and cells, each length-checked against r/r*c on load per the
// persisted-state contract.
type cmsState struct {
	R, C   int
	Param1 []uint64
	Param2 []uint64
	Data   []float64
}

func (m *CMS) state() cmsState {
	return cmsState{
		R:      m.r,
		C:      m.c,
		Param1: append([]uint64(nil), m.param1...),
		Param2: append([]uint64(nil), m.param2...),
		Data:   append([]float64(nil), m.cells...),
	}
}

func cmsFromState(s cmsState) (*CMS, error) {
	if len(s.Param1) != s.R || len(s.Param2) != s.R {
		return nil, fmt.Errorf("%w: hash parameter length mismatch (want r=%d, got param1=%d param2=%d)", ErrLoad, s.R, len(s.Param1), len(s.Param2))
	}
	if len(s.Data) != s.R*s.C {
		return nil, fmt.Errorf("%w: cell count mismatch (want %d, got %d)", ErrLoad, s.R*s.C, len(s.Data))
	}
	return &CMS{r: s.R, c: s.C, param1: s.Param1, param2: s.Param2, cells: s.Data}, nil
}

// normalState is the persisted layout of a NormalCore.
type normalState struct {
	NumRow, NumColumn int
	Timestamp         uint64
	OutOfOrder        uint64
	Index             []int
	NumCurrent        cmsState
	NumTotal          cmsState
}

// DumpTo gob-encodes the core's state to w.
func (n *NormalCore) DumpTo(w io.Writer) error {
	state := normalState{
		NumRow:     n.numRow,
		NumColumn:  n.numColumn,
		Timestamp:  n.timestamp,
		OutOfOrder: n.outOfOrder,
		Index:      append([]int(nil), n.index...),
		NumCurrent: n.numCurrent.state(),
		NumTotal:   n.numTotal.state(),
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Dump writes the core's state to path, creating or truncating it.
func (n *NormalCore) Dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	return n.DumpTo(f)
}

// LoadNormalCoreFrom decodes a NormalCore previously written by DumpTo.
func LoadNormalCoreFrom(r io.Reader) (*NormalCore, error) {
	var state normalState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(state.Index) != state.NumRow {
		return nil, fmt.Errorf("%w: index length mismatch (want %d, got %d)", ErrLoad, state.NumRow, len(state.Index))
	}
	current, err := cmsFromState(state.NumCurrent)
	if err != nil {
		return nil, err
	}
	total, err := cmsFromState(state.NumTotal)
	if err != nil {
		return nil, err
	}
	return &NormalCore{
		numRow:     state.NumRow,
		numColumn:  state.NumColumn,
		timestamp:  state.Timestamp,
		outOfOrder: state.OutOfOrder,
		index:      state.Index,
		numCurrent: current,
		numTotal:   total,
		logger:     log.Default(),
	}, nil
}

// LoadNormalCore reads a NormalCore previously written by Dump.
func LoadNormalCore(path string) (*NormalCore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()
	return LoadNormalCoreFrom(f)
}

// relationalState is the persisted layout of a RelationalCore.
type relationalState struct {
	NumRow, NumColumn int
	Timestamp         uint64
	Factor            float64
	OutOfOrder        uint64

	IndexEdge, IndexSource, IndexDestination []int

	NumCurrentEdge, NumTotalEdge               cmsState
	NumCurrentSource, NumTotalSource           cmsState
	NumCurrentDestination, NumTotalDestination cmsState
}

// DumpTo gob-encodes the core's state to w.
func (r *RelationalCore) DumpTo(w io.Writer) error {
	state := relationalState{
		NumRow:                r.numRow,
		NumColumn:             r.numColumn,
		Timestamp:             r.timestamp,
		Factor:                r.factor,
		OutOfOrder:            r.outOfOrder,
		IndexEdge:             append([]int(nil), r.indexEdge...),
		IndexSource:           append([]int(nil), r.indexSource...),
		IndexDestination:      append([]int(nil), r.indexDestination...),
		NumCurrentEdge:        r.numCurrentEdge.state(),
		NumTotalEdge:          r.numTotalEdge.state(),
		NumCurrentSource:      r.numCurrentSource.state(),
		NumTotalSource:        r.numTotalSource.state(),
		NumCurrentDestination: r.numCurrentDestination.state(),
		NumTotalDestination:   r.numTotalDestination.state(),
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Dump writes the core's state to path, creating or truncating it.
func (r *RelationalCore) Dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	return r.DumpTo(f)
}

// LoadRelationalCoreFrom decodes a RelationalCore previously written by
// DumpTo.
func LoadRelationalCoreFrom(reader io.Reader) (*RelationalCore, error) {
	var state relationalState
	if err := gob.NewDecoder(reader).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(state.IndexEdge) != state.NumRow || len(state.IndexSource) != state.NumRow || len(state.IndexDestination) != state.NumRow {
		return nil, fmt.Errorf("%w: index length mismatch (want %d)", ErrLoad, state.NumRow)
	}

	curEdge, err := cmsFromState(state.NumCurrentEdge)
	if err != nil {
		return nil, err
	}
	totEdge, err := cmsFromState(state.NumTotalEdge)
	if err != nil {
		return nil, err
	}
	curSource, err := cmsFromState(state.NumCurrentSource)
	if err != nil {
		return nil, err
	}
	totSource, err := cmsFromState(state.NumTotalSource)
	if err != nil {
		return nil, err
	}
	curDestination, err := cmsFromState(state.NumCurrentDestination)
	if err != nil {
		return nil, err
	}
	totDestination, err := cmsFromState(state.NumTotalDestination)
	if err != nil {
		return nil, err
	}

	return &RelationalCore{
		numRow:                state.NumRow,
		numColumn:             state.NumColumn,
		timestamp:             state.Timestamp,
		factor:                state.Factor,
		outOfOrder:            state.OutOfOrder,
		numCurrentEdge:        curEdge,
		numTotalEdge:          totEdge,
		numCurrentSource:      curSource,
		numTotalSource:        totSource,
		numCurrentDestination: curDestination,
		numTotalDestination:   totDestination,
		indexEdge:             state.IndexEdge,
		indexSource:           state.IndexSource,
		indexDestination:      state.IndexDestination,
		logger:                log.Default(),
	}, nil
}

// LoadRelationalCore reads a RelationalCore previously written by Dump.
func LoadRelationalCore(path string) (*RelationalCore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()
	return LoadRelationalCoreFrom(f)
}

// filteringState is the persisted layout of a FilteringCore.
type filteringState struct {
	NumRow, NumColumn   int
	Timestamp           uint64
	Factor              float64
	Threshold           float64
	TimestampReciprocal float64
	OutOfOrder          uint64

	IndexEdge, IndexSource, IndexDestination []int
	ShouldMerge                              []bool

	NumCurrentEdge, NumTotalEdge, ScoreEdge               cmsState
	NumCurrentSource, NumTotalSource, ScoreSource         cmsState
	NumCurrentDestination, NumTotalDestination, ScoreDest cmsState
}

// DumpTo gob-encodes the core's state to w.
func (f *FilteringCore) DumpTo(w io.Writer) error {
	state := filteringState{
		NumRow:                f.numRow,
		NumColumn:             f.numColumn,
		Timestamp:             f.timestamp,
		Factor:                f.factor,
		Threshold:             f.threshold,
		TimestampReciprocal:   f.timestampReciprocal,
		OutOfOrder:            f.outOfOrder,
		IndexEdge:             append([]int(nil), f.indexEdge...),
		IndexSource:           append([]int(nil), f.indexSource...),
		IndexDestination:      append([]int(nil), f.indexDestination...),
		ShouldMerge:           append([]bool(nil), f.shouldMerge...),
		NumCurrentEdge:        f.numCurrentEdge.state(),
		NumTotalEdge:          f.numTotalEdge.state(),
		ScoreEdge:             f.scoreEdge.state(),
		NumCurrentSource:      f.numCurrentSource.state(),
		NumTotalSource:        f.numTotalSource.state(),
		ScoreSource:           f.scoreSource.state(),
		NumCurrentDestination: f.numCurrentDestination.state(),
		NumTotalDestination:   f.numTotalDestination.state(),
		ScoreDest:             f.scoreDest.state(),
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Dump writes the core's state to path, creating or truncating it.
func (f *FilteringCore) Dump(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer file.Close()
	return f.DumpTo(file)
}

// LoadFilteringCoreFrom decodes a FilteringCore previously written by
// DumpTo.
func LoadFilteringCoreFrom(reader io.Reader) (*FilteringCore, error) {
	var state filteringState
	if err := gob.NewDecoder(reader).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(state.IndexEdge) != state.NumRow || len(state.IndexSource) != state.NumRow || len(state.IndexDestination) != state.NumRow {
		return nil, fmt.Errorf("%w: index length mismatch (want %d)", ErrLoad, state.NumRow)
	}
	if len(state.ShouldMerge) != state.NumRow*state.NumColumn {
		return nil, fmt.Errorf("%w: shouldMerge length mismatch (want %d, got %d)", ErrLoad, state.NumRow*state.NumColumn, len(state.ShouldMerge))
	}

	curEdge, err := cmsFromState(state.NumCurrentEdge)
	if err != nil {
		return nil, err
	}
	totEdge, err := cmsFromState(state.NumTotalEdge)
	if err != nil {
		return nil, err
	}
	scEdge, err := cmsFromState(state.ScoreEdge)
	if err != nil {
		return nil, err
	}
	curSource, err := cmsFromState(state.NumCurrentSource)
	if err != nil {
		return nil, err
	}
	totSource, err := cmsFromState(state.NumTotalSource)
	if err != nil {
		return nil, err
	}
	scSource, err := cmsFromState(state.ScoreSource)
	if err != nil {
		return nil, err
	}
	curDestination, err := cmsFromState(state.NumCurrentDestination)
	if err != nil {
		return nil, err
	}
	totDestination, err := cmsFromState(state.NumTotalDestination)
	if err != nil {
		return nil, err
	}
	scDestination, err := cmsFromState(state.ScoreDest)
	if err != nil {
		return nil, err
	}

	return &FilteringCore{
		numRow:                state.NumRow,
		numColumn:             state.NumColumn,
		timestamp:             state.Timestamp,
		factor:                state.Factor,
		threshold:             state.Threshold,
		timestampReciprocal:   state.TimestampReciprocal,
		outOfOrder:            state.OutOfOrder,
		numCurrentEdge:        curEdge,
		numTotalEdge:          totEdge,
		scoreEdge:             scEdge,
		numCurrentSource:      curSource,
		numTotalSource:        totSource,
		scoreSource:           scSource,
		numCurrentDestination: curDestination,
		numTotalDestination:   totDestination,
		scoreDest:             scDestination,
		indexEdge:             state.IndexEdge,
		indexSource:           state.IndexSource,
		indexDestination:      state.IndexDestination,
		shouldMerge:           state.ShouldMerge,
		logger:                log.Default(),
	}, nil
}

// LoadFilteringCore reads a FilteringCore previously written by Dump.
func LoadFilteringCore(path string) (*FilteringCore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()
	return LoadFilteringCoreFrom(f)
}
