package domain

import "errors"

var (
	// ErrMalformedInput marks a caller contract violation in event data
	// (unsorted timestamps, out-of-range prices, missing ids).
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidConfig is returned by NewBacktestConfig.
	ErrInvalidConfig = errors.New("invalid backtest config")
)
