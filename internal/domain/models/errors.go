package models

import "errors"

// Engine error taxonomy. Only ErrUnknownProfile is meant to reach the API
// caller; the other classes are recovered internally by a fallback path.
var (
	// ErrInsufficientData: fewer rows than a feature or window computation
	// requires. Recovered by the flat-fallback path.
	ErrInsufficientData = errors.New("insufficient market data")

	// ErrModelUnavailable: no trained artifact, or the artifact failed to
	// load. Recovered by the fixed fallback allocation fraction.
	ErrModelUnavailable = errors.New("allocation model unavailable")

	// ErrUnknownProfile: a risk profile without a configuration entry.
	// Propagates to the caller as a rejected request.
	ErrUnknownProfile = errors.New("unknown risk profile")

	// ErrUpstreamData: the market data provider is unreachable. Recovered by
	// fixed fallback rates, flagged on the response.
	ErrUpstreamData = errors.New("market data upstream unavailable")
)
