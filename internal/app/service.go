// Package service provides the aggregation engine behind the HTTP API.
//
// Every read re-derives the leaderboard from the artifact store: list
// participants, pick each participant's latest run, parse and summarize its
// verdicts on a bounded worker pool, then sort once. Nothing is written back.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/judgeboard/internal/adapters/cache"
	"github.com/okian/judgeboard/internal/adapters/repository"
	"github.com/okian/judgeboard/internal/adapters/worker"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/ranking"
	"github.com/okian/judgeboard/internal/domain/runs"
	"github.com/okian/judgeboard/internal/domain/scoring"
	"github.com/okian/judgeboard/internal/domain/types"
	"github.com/okian/judgeboard/internal/domain/verdict"
	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

const (
	defaultWorkerMultiplier   = 4
	defaultParticipantTimeout = 10 * time.Second
	defaultRecentWindow       = 24 * time.Hour

	tracerName = "github.com/okian/judgeboard/internal/app"
)

// Service implements the API dependencies for the leaderboard.
type Service struct {
	store      repository.Store
	selector   *runs.Selector
	parser     *verdict.Parser
	summarizer scoring.Summarizer
	cache      *cache.Summaries
	pool       *worker.Pool
	tracer     trace.Tracer

	// Configuration
	workerCount        int
	participantTimeout time.Duration
	recentWindow       time.Duration
	now                func() time.Time

	// Last computation, for GetStats only.
	mu   sync.RWMutex
	last report

	logger logger.Logger
}

// report describes one computation.
type report struct {
	at       time.Time
	ranked   int
	excluded int
	failed   int
	duration time.Duration
}

// outcome is the per-participant result. reason is set when the
// participant has no data.
type outcome struct {
	summary model.MetricSummary
	reason  string
}

// New constructs a Service reading from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:              store,
		selector:           runs.NewSelector(),
		summarizer:         scoring.NewMeanSummarizer(),
		tracer:             otel.Tracer(tracerName),
		workerCount:        runtime.NumCPU() * defaultWorkerMultiplier,
		participantTimeout: defaultParticipantTimeout,
		recentWindow:       defaultRecentWindow,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.parser == nil {
		s.parser = verdict.NewParser(verdict.WithLogger(s.logger.Named("verdict")))
	}
	s.pool = worker.NewPool(
		worker.WithSize(s.workerCount),
		worker.WithJobTimeout(s.participantTimeout),
		worker.WithName("participants"),
		worker.WithLogger(s.logger.Named("worker-pool")),
	)
	return s
}

// Leaderboard returns the top limit entries with a generation timestamp.
func (s *Service) Leaderboard(ctx context.Context, limit int) (types.Leaderboard, error) {
	if limit < 1 {
		return types.Leaderboard{}, fmt.Errorf("%w: %d", ranking.ErrInvalidLimit, limit)
	}
	summaries, err := s.summaries(ctx)
	if err != nil {
		return types.Leaderboard{}, err
	}
	entries, err := ranking.Top(summaries, limit)
	if err != nil {
		return types.Leaderboard{}, err
	}
	return types.Leaderboard{
		Rankings:  entries,
		Timestamp: s.now().Unix(),
		Count:     len(entries),
	}, nil
}

// Rank returns the entry of participantID within the full ordering.
func (s *Service) Rank(ctx context.Context, participantID string) (types.Entry, error) {
	summaries, err := s.summaries(ctx)
	if err != nil {
		return types.Entry{}, err
	}
	entry, ok := ranking.Find(ranking.Order(summaries), participantID)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	return entry, nil
}

// Stats returns dashboard statistics over the full ordering.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	summaries, err := s.summaries(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	return ranking.Summarize(ranking.Order(summaries), s.now(), s.recentWindow), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"workerCount":          s.pool.Size(),
		"workerPool":           s.pool.Name(),
		"participantTimeoutMs": s.participantTimeout.Milliseconds(),
		"cachedSummaries":      s.cache.Len(),
	}
	if !s.last.at.IsZero() {
		stats["lastComputedAt"] = s.last.at.Unix()
		stats["lastRanked"] = s.last.ranked
		stats["lastExcluded"] = s.last.excluded
		stats["lastFailed"] = s.last.failed
		stats["lastDurationMs"] = s.last.duration.Milliseconds()
	}
	return stats
}

// summaries derives one summary per participant with data. Participants
// without data or whose processing failed are left out.
func (s *Service) summaries(ctx context.Context) ([]model.MetricSummary, error) {
	ctx, span := s.tracer.Start(ctx, "service.Service.summaries")
	defer span.End()

	start := time.Now()
	ids, err := s.store.ListParticipants(ctx)
	if err != nil {
		metrics.RecordLeaderboardError()
		s.logger.Error(ctx, "participant listing failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrListParticipants, err)
	}

	results, err := worker.Run(ctx, s.pool, ids, s.summarizeParticipant)
	if err != nil {
		metrics.RecordLeaderboardError()
		return nil, fmt.Errorf("leaderboard computation aborted: %w", err)
	}

	rep := report{at: s.now()}
	summaries := make([]model.MetricSummary, 0, len(results))
	for _, r := range results {
		switch {
		case r.Err != nil:
			rep.failed++
			metrics.RecordParticipantExcluded(metrics.ReasonFailed)
			s.logger.Error(ctx, "participant processing failed",
				logger.String("participant", r.ID), logger.Error(r.Err))
		case r.Value.reason != "":
			rep.excluded++
			metrics.RecordParticipantExcluded(r.Value.reason)
			s.logger.Warn(ctx, "participant excluded",
				logger.String("participant", r.ID), logger.String("reason", r.Value.reason))
		default:
			summaries = append(summaries, r.Value.summary)
		}
	}
	rep.ranked = len(summaries)
	rep.duration = time.Since(start)

	metrics.RecordLeaderboardComputation(float64(rep.duration.Microseconds())/1000, rep.ranked)
	span.SetAttributes(
		attribute.Int("participants", len(ids)),
		attribute.Int("ranked", rep.ranked),
	)
	s.logger.Info(ctx, "leaderboard computed",
		logger.Int("ranked", rep.ranked),
		logger.Int("excluded", rep.excluded),
		logger.Int("failed", rep.failed),
		logger.Duration("duration", rep.duration),
	)

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()
	return summaries, nil
}

// summarizeParticipant summarizes the participant's latest run. Only an
// output that vanished between listing and fetching falls through to the
// next older run; a latest run without records excludes the participant.
func (s *Service) summarizeParticipant(ctx context.Context, participantID string) (outcome, error) {
	ctx, span := s.tracer.Start(ctx, "service.Service.summarizeParticipant",
		trace.WithAttributes(attribute.String("participant", participantID)))
	defer span.End()

	objs, err := s.store.ListObjects(ctx, participantID)
	if err != nil {
		return outcome{}, fmt.Errorf("list runs: %w", err)
	}
	candidates := s.selector.Candidates(participantID, objs)
	if len(candidates) == 0 {
		return outcome{reason: metrics.ReasonNoRun}, nil
	}
	for _, run := range candidates {
		sum, found, err := s.summarizeRun(ctx, run)
		if err != nil {
			return outcome{}, err
		}
		if !found {
			continue
		}
		span.SetAttributes(attribute.String("run", run.RunID))
		if sum.EvaluationCount == 0 {
			return outcome{reason: metrics.ReasonNoRecords}, nil
		}
		return outcome{summary: sum}, nil
	}
	return outcome{reason: metrics.ReasonNoRun}, nil
}

// summarizeRun fetches and summarizes one run output. found is false when
// the artifact no longer exists. A run without records yields a summary
// with EvaluationCount 0.
func (s *Service) summarizeRun(ctx context.Context, run model.RunRef) (model.MetricSummary, bool, error) {
	if cached, ok := s.cache.Get(run); ok {
		return cached, true, nil
	}

	data, err := s.store.Fetch(ctx, run.Key)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug(ctx, "run output vanished, trying older run",
			logger.String("participant", run.ParticipantID), logger.String("key", run.Key))
		return model.MetricSummary{}, false, nil
	}
	if err != nil {
		return model.MetricSummary{}, false, fmt.Errorf("fetch run %s: %w", run.RunID, err)
	}

	res := s.parser.Parse(ctx, run.Key, data)
	metrics.RecordVerdictRecords(len(res.Records), res.Malformed)

	sum, ok := s.summarizer.Summarize(run, res.Records)
	if !ok {
		s.logger.Debug(ctx, "latest run output has no records",
			logger.String("participant", run.ParticipantID), logger.String("key", run.Key),
			logger.Int("malformed", res.Malformed))
		sum = model.MetricSummary{ParticipantID: run.ParticipantID, RunID: run.RunID, Timestamp: run.Timestamp}
	}
	if !finite(sum) {
		return model.MetricSummary{}, false, fmt.Errorf("%w: run %s", ErrNonFiniteScore, run.RunID)
	}
	s.cache.Add(run, sum)
	return sum, true, nil
}

func finite(sum model.MetricSummary) bool {
	if math.IsInf(sum.TotalScore, 0) || math.IsNaN(sum.TotalScore) {
		return false
	}
	for _, v := range sum.MetricScores {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
