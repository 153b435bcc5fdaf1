// Package cache keeps run summaries keyed by artifact identity so unchanged
// run outputs are not fetched and parsed on every leaderboard read.
package cache

import (
	"fmt"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Summaries is an LRU of run summaries. The zero size disables caching.
// A cached summary with EvaluationCount 0 records that the run had no
// usable records.
type Summaries struct {
	lru *lru.Cache[string, model.MetricSummary]
}

// NewSummaries creates a cache holding up to size summaries.
func NewSummaries(size int) (*Summaries, error) {
	if size <= 0 {
		return &Summaries{}, nil
	}
	c, err := lru.New[string, model.MetricSummary](size)
	if err != nil {
		return nil, fmt.Errorf("create summary cache: %w", err)
	}
	return &Summaries{lru: c}, nil
}

// Get returns the summary cached for run. An artifact rewritten in place
// changes size or modification time and misses.
func (c *Summaries) Get(run model.RunRef) (model.MetricSummary, bool) {
	if c == nil || c.lru == nil {
		return model.MetricSummary{}, false
	}
	s, ok := c.lru.Get(key(run))
	if !ok {
		metrics.RecordCacheMiss()
		return model.MetricSummary{}, false
	}
	metrics.RecordCacheHit()
	s.MetricScores = maps.Clone(s.MetricScores)
	s.CategoryCounts = maps.Clone(s.CategoryCounts)
	return s, true
}

// Add stores the summary computed for run.
func (c *Summaries) Add(run model.RunRef, s model.MetricSummary) {
	if c == nil || c.lru == nil {
		return
	}
	s.MetricScores = maps.Clone(s.MetricScores)
	s.CategoryCounts = maps.Clone(s.CategoryCounts)
	c.lru.Add(key(run), s)
}

// Len reports the number of cached summaries.
func (c *Summaries) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func key(run model.RunRef) string {
	return fmt.Sprintf("%s|%d|%d", run.Key, run.Size, run.ModTime.UnixNano())
}
