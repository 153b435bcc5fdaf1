// Package model contains domain models passed between layers.
package model

import "time"

// DefaultCategory labels verdict records whose input carries no category.
const DefaultCategory = "unknown"

// Participant is an entrant identified by an opaque id. The id doubles as
// storage namespace segment and display name.
type Participant struct {
	ID string
}

// RunRef identifies one completed evaluation run through its output artifact.
type RunRef struct {
	ParticipantID string
	RunID         string // job name, e.g. llm-judge-<participant>-<timestamp>
	Timestamp     int64  // creation time, unix seconds
	Key           string // storage key of the output artifact
	Size          int64
	ModTime       time.Time
}

// VerdictRecord is the judge output for one evaluated example.
type VerdictRecord struct {
	Category string
	Scores   []MetricScore
}

// MetricScore is one (metric, score) pair. Metrics may repeat within a
// record; every occurrence is part of the sample.
type MetricScore struct {
	Metric string
	Score  float64
}

// MetricSummary aggregates the verdict records of a single run.
type MetricSummary struct {
	ParticipantID   string
	RunID           string
	TotalScore      float64
	MetricScores    map[string]float64
	CategoryCounts  map[string]int
	EvaluationCount int
	Timestamp       int64
}

// Object is a listed storage object.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}
