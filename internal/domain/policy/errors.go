package policy

import "errors"

// ErrInvalidPolicy is returned for metric choices or targets a source does not support.
var ErrInvalidPolicy = errors.New("invalid metric policy")
