package domain

import "errors"

var (
	// ErrCityNotFound marks a city identifier the store does not know.
	// It is distinct from a known city that simply has no offers.
	ErrCityNotFound = errors.New("city not found")

	ErrOfferNotFound = errors.New("offer not found")

	// ErrInvalidArgument marks a caller-supplied value outside the engine's configured bounds.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRepository marks a failure of the offer store itself (unreachable, query error).
	ErrRepository = errors.New("offer repository failure")
)
