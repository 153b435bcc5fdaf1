package ranking

import "errors"

// ErrInvalidLimit is returned for a leaderboard limit below one.
var ErrInvalidLimit = errors.New("invalid leaderboard limit")
