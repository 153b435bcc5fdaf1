package service

import "errors"

var (
	// ErrListParticipants is returned when the participant listing fails.
	// It fails the whole request.
	ErrListParticipants = errors.New("failed to list participants")
	// ErrParticipantNotFound is returned when a participant is not ranked.
	ErrParticipantNotFound = errors.New("participant not ranked")
)

// ErrNonFiniteScore is returned when a run summarizes to an infinite or NaN
// score. The participant is treated as failed.
var ErrNonFiniteScore = errors.New("non-finite score")
