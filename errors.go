package hopscotch

import "errors"

var (
	// ErrOutOfRange signals an out of range configuration value.
	ErrOutOfRange = errors.New("out of range")

	// ErrNotPowerOf2 signals a size that must be a power of two but is not.
	ErrNotPowerOf2 = errors.New("not a power of two")

	// ErrTableFull signals that an insert could not succeed even after
	// growing the table up to the doubling cap.
	ErrTableFull = errors.New("table is full")
)
