package dataset

import "errors"

// ErrNoObservations is returned when a requested variable pair has zero
// non-missing paired rows in the selected subset.
var ErrNoObservations = errors.New("no paired non-missing observations")

// ErrLengthMismatch is returned when two columns that must be row-aligned
// have different lengths. Inputs are never truncated or padded.
var ErrLengthMismatch = errors.New("column length mismatch")
