package repository

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
	"gocloud.dev/gcerrors"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

const (
	defaultResultsPrefix = "evaluation-results/"
	defaultOpTimeout     = 10 * time.Second
	defaultMaxBytes      = 64 << 20

	tracerName = "github.com/okian/judgeboard/internal/adapters/repository"
)

// BlobStore is a Store over a gocloud.dev bucket. Any driver registered by
// URL scheme works: mem://, file://, s3://, gs://.
type BlobStore struct {
	bucket    *blob.Bucket
	prefix    string
	opTimeout time.Duration
	maxBytes  int64
	tracer    trace.Tracer
	logger    logger.Logger
}

var (
	_ Store  = (*BlobStore)(nil)
	_ Writer = (*BlobStore)(nil)
)

// OpenBlobStore opens bucketURL and wraps it in a BlobStore.
func OpenBlobStore(ctx context.Context, bucketURL string, opts ...Option) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		metrics.RecordArtifactError("open")
		return nil, kindf(ErrOpenBucket, err, "bucket %s", bucketURL)
	}
	return NewBlobStore(bucket, opts...), nil
}

// NewBlobStore wraps an already opened bucket. The store owns the bucket.
func NewBlobStore(bucket *blob.Bucket, opts ...Option) *BlobStore {
	s := &BlobStore{
		bucket:    bucket,
		prefix:    defaultResultsPrefix,
		opTimeout: defaultOpTimeout,
		maxBytes:  defaultMaxBytes,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	return s
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

// ListParticipants lists the first path segment below the results prefix.
func (s *BlobStore) ListParticipants(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "repository.BlobStore.ListParticipants",
		trace.WithAttributes(attribute.String("prefix", s.prefix)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix, Delimiter: "/"})
	var ids []string
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordArtifactError("list")
			err = kindf(ErrList, err, "participants under %q", s.prefix)
			failSpan(span, err)
			return nil, err
		}
		if !obj.IsDir {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	span.SetAttributes(attribute.Int("participants", len(ids)))
	return ids, nil
}

// ListObjects lists every object below the participant namespace,
// descending into nested directories.
func (s *BlobStore) ListObjects(ctx context.Context, participantID string) ([]model.Object, error) {
	prefix := s.prefix + participantID + "/"
	ctx, span := s.tracer.Start(ctx, "repository.BlobStore.ListObjects",
		trace.WithAttributes(attribute.String("prefix", prefix)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	var objs []model.Object
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordArtifactError("list")
			err = kindf(ErrList, err, "objects under %q", prefix)
			failSpan(span, err)
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		objs = append(objs, model.Object{Key: obj.Key, Size: obj.Size, ModTime: obj.ModTime})
	}
	span.SetAttributes(attribute.Int("objects", len(objs)))
	return objs, nil
}

// Fetch reads key in full, up to the configured byte limit.
func (s *BlobStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "repository.BlobStore.Fetch",
		trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.RecordArtifactFetchLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrapf(ErrNotFound, "key %s", key)
		}
		metrics.RecordArtifactError("fetch")
		err = kindf(ErrFetch, err, "open %s", key)
		failSpan(span, err)
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			s.logger.Debug(ctx, "artifact reader close failed",
				logger.String("key", key), logger.Error(cerr))
		}
	}()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		metrics.RecordArtifactError("fetch")
		err = kindf(ErrFetch, err, "read %s", key)
		failSpan(span, err)
		return nil, err
	}
	if n > s.maxBytes {
		metrics.RecordArtifactError("fetch")
		err = errors.Wrapf(ErrTooLarge, "key %s exceeds %d bytes", key, s.maxBytes)
		failSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("bytes", n))
	return buf.Bytes(), nil
}

// Put writes data under key.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "repository.BlobStore.Put",
		trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: "application/jsonl"}); err != nil {
		metrics.RecordArtifactError("put")
		err = errors.Wrapf(err, "write %s", key)
		failSpan(span, err)
		return err
	}
	return nil
}

// Prefix returns the results prefix, with trailing slash.
func (s *BlobStore) Prefix() string { return s.prefix }

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
