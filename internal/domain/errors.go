package domain

import "errors"

// Error kinds shared by the simulator packages. Call sites wrap them with
// context, so callers classify failures with errors.Is.
var (
	// ErrInvalidPanel reports an empty, ragged or otherwise unusable return panel.
	ErrInvalidPanel = errors.New("invalid panel")
	// ErrInvalidParameter reports a non-positive simulation count, horizon or year length.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMisalignedHorizon reports a horizon that is not a whole number of years.
	ErrMisalignedHorizon = errors.New("misaligned horizon")
	// ErrStorage reports a failed save or load of a simulation array.
	ErrStorage = errors.New("storage error")
	// ErrNotFound reports a load of something that was never saved.
	ErrNotFound = errors.New("not found")
)
