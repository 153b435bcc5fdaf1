package repository

import (
	"strings"
	"time"

	"github.com/okian/judgeboard/pkg/logger"
)

// Option applies a configuration option to the BlobStore.
type Option func(*BlobStore)

// WithResultsPrefix sets the key prefix that holds participant namespaces.
// A missing trailing slash is added.
func WithResultsPrefix(prefix string) Option {
	return func(s *BlobStore) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// WithOperationTimeout bounds every single store call.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *BlobStore) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// WithMaxArtifactBytes bounds how much of an artifact Fetch reads.
func WithMaxArtifactBytes(n int64) Option {
	return func(s *BlobStore) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *BlobStore) {
		if l != nil {
			s.logger = l
		}
	}
}
