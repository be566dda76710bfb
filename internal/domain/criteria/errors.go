package criteria

import "errors"

// ErrUnknownCriterion is returned for a criterion name outside All.
var ErrUnknownCriterion = errors.New("unknown criterion")
