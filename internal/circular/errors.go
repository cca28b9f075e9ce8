package circular

import "errors"

var (
	// ErrInsufficientData is returned when a sample is too small for the operation.
	ErrInsufficientData = errors.New("circular: insufficient data")

	// ErrNumericDomain is returned instead of letting NaN or Inf leak out of a
	// computation (log of a non-positive value, zero resultant length).
	ErrNumericDomain = errors.New("circular: numeric domain error")

	// ErrNotConverged marks a bandwidth search that ran out of evaluations.
	ErrNotConverged = errors.New("circular: optimizer did not converge")

	// ErrUnknownDomain is returned for an unrecognized cyclic domain selector.
	ErrUnknownDomain = errors.New("circular: unknown domain")

	// ErrInvalidInput covers malformed arguments (non-finite angles, bad sizes).
	ErrInvalidInput = errors.New("circular: invalid input")
)
