package source

import "errors"

// ErrMalformedSnapshot is returned when a snapshot's top-level document does
// not have the shape of its source at all.
var ErrMalformedSnapshot = errors.New("malformed snapshot")
