package scoring

import "errors"

// Error kinds returned (wrapped) by constructors, Dump and Load.
var (
	// ErrConstruction is wrapped by constructors when dimensions, factor
	// or threshold are out of range.
	ErrConstruction = errors.New("scoring: construction error")

	// ErrLoad is wrapped when persisted state is malformed, has
	// mismatched array lengths, or could not be read.
	ErrLoad = errors.New("scoring: load error")

	// ErrIO is wrapped when a dump cannot be written to its target.
	ErrIO = errors.New("scoring: io error")
)
