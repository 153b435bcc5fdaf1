package verdict

import "errors"

// ErrMalformedLine marks a verdict line that failed to decode or validate.
var ErrMalformedLine = errors.New("malformed verdict line")
