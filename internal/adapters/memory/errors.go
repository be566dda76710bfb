package memory

import "errors"

// Sentinel kinds for fixture lookups.
var (
	ErrUnknownUser     = errors.New("user not found")
	ErrUnknownFestival = errors.New("festival not found")
)
