package repository

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrList is returned when a listing fails.
	ErrList = errors.New("artifact listing failed")
	// ErrFetch is returned when an artifact read fails.
	ErrFetch = errors.New("artifact fetch failed")
	// ErrTooLarge is returned when an artifact exceeds the read limit.
	ErrTooLarge = errors.New("artifact too large")
	// ErrOpenBucket is returned when the bucket URL cannot be opened.
	ErrOpenBucket = errors.New("open bucket failed")
)

// kindf wraps kind with a formatted message carrying cause and keeps cause
// reachable as secondary error for %+v output.
func kindf(kind, cause error, format string, args ...any) error {
	return errors.WithSecondaryError(errors.Wrapf(kind, format+": %v", append(args, cause)...), cause)
}
