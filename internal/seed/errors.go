package seed

import "errors"

// ErrInvalidConfig is returned for a config that cannot produce a dataset.
var ErrInvalidConfig = errors.New("invalid seed config")
