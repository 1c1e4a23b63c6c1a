package contracts

import "errors"

var (
	// ErrDataUnavailable is returned when a data source has no coverage for a request
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("not found")
)

// DateLayout is the trading date format used on every external surface
const DateLayout = "2006-01-02"
