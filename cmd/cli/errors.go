package cli

import "errors"

var (
	// ErrUnknownVariant is returned for a --variant that does not exist.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrUnknownEvent is returned when an event ID is not in the fixture.
	ErrUnknownEvent = errors.New("event not found")
)
