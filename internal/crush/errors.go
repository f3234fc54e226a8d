package crush

import "errors"

var (
	// ErrInsufficientData means a required observation is missing on one side of the earnings date.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidParameter means an input would make the pricing model undefined.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumericDegeneracy means pricing produced a non-finite value.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)
