package types

import "errors"

// ErrUnavailable marks a read that cannot be served yet, for example before
// the service has started.
var ErrUnavailable = errors.New("service unavailable")
