package service

import (
	"time"

	"github.com/okian/judgeboard/internal/adapters/cache"
	"github.com/okian/judgeboard/internal/domain/runs"
	"github.com/okian/judgeboard/internal/domain/scoring"
	"github.com/okian/judgeboard/internal/domain/verdict"
	"github.com/okian/judgeboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many participants are processed at once.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithParticipantTimeout bounds the processing of a single participant.
func WithParticipantTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.participantTimeout = d
		}
	}
}

// WithSelector sets the run selector.
func WithSelector(sel *runs.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithParser sets the verdict parser.
func WithParser(p *verdict.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithSummarizer sets the run summarizer.
func WithSummarizer(sum scoring.Summarizer) Option {
	return func(s *Service) {
		if sum != nil {
			s.summarizer = sum
		}
	}
}

// WithSummaryCache sets the run summary cache.
func WithSummaryCache(c *cache.Summaries) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock overrides the time source used for generation timestamps
// and the recent-evaluations window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecentWindow sets the window counted as recent in Stats.
func WithRecentWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recentWindow = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
