// Package repository provides read access to judge output artifacts.
//
// Artifacts live in an object store below a results prefix, one namespace
// per participant:
//
//	<results-prefix><participant-id>/<job-prefix>-<participant-id>-<unix-seconds>/.../<name>_output.jsonl
package repository

import (
	"context"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Store lists participants and their artifacts and fetches artifact content.
type Store interface {
	// ListParticipants returns the ids of every participant namespace, sorted.
	ListParticipants(ctx context.Context) ([]string, error)
	// ListObjects returns every object below the participant's namespace.
	ListObjects(ctx context.Context, participantID string) ([]model.Object, error)
	// Fetch reads an artifact in full. Missing keys yield ErrNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Writer stores artifacts. Only fixture tooling writes.
type Writer interface {
	Put(ctx context.Context, key string, data []byte) error
}
