package guard

import "errors"

// ErrRejected is returned when a call is refused by an open circuit or the rate limiter.
var ErrRejected = errors.New("collaborator call rejected")
