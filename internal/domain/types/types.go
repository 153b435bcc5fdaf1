// Package types contains the read shapes returned by the leaderboard API.
package types

// StatusCompleted marks an entry derived from a finished evaluation run.
const StatusCompleted = "COMPLETED"

// Entry represents a ranked leaderboard row.
type Entry struct {
	Rank            int                `json:"rank"`
	ParticipantID   string             `json:"participantId"`
	ModelName       string             `json:"modelName"`
	TotalScore      float64            `json:"totalScore"`
	MetricScores    map[string]float64 `json:"metricScores"`
	EvaluationCount int                `json:"evaluationCount"`
	Timestamp       int64              `json:"timestamp"`
	Status          string             `json:"status"`
	RunID           string             `json:"runId,omitempty"`
	CategoryCounts  map[string]int     `json:"categoryCounts,omitempty"`
}

// Leaderboard is the response body of GET /leaderboard.
type Leaderboard struct {
	Rankings  []Entry `json:"rankings"`
	Timestamp int64   `json:"timestamp"`
	Count     int     `json:"count"`
}

// Stats summarizes a ranked leaderboard for dashboards.
type Stats struct {
	TotalParticipants int     `json:"totalParticipants"`
	AverageScore      float64 `json:"averageScore"`
	TopScore          float64 `json:"topScore"`
	RecentEvaluations int     `json:"recentEvaluations"`
}
