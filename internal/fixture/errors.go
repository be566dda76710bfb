package fixture

import "errors"

// ErrFixture marks an unreadable or inconsistent fixture.
var ErrFixture = errors.New("invalid fixture")
