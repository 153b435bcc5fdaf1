// Package ranking orders run summaries into a leaderboard.
//
// Ordering keys, in priority order:
//  1. total score, descending
//  2. timestamp, ascending (first to reach a score wins)
//  3. participant id, ascending
//
// Participant ids are unique, so the order is total and ranks are positional.
package ranking

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/types"
)

// DefaultLimit is the leaderboard size when the caller does not ask for one.
const DefaultLimit = 50

// Compare orders two summaries by the leaderboard keys.
func Compare(a, b model.MetricSummary) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.ParticipantID, b.ParticipantID)
}

// Order sorts every summary and assigns ranks 1..len. The input is not
// modified.
func Order(summaries []model.MetricSummary) []types.Entry {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, Compare)

	entries := make([]types.Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = toEntry(s, i+1)
	}
	return entries
}

// Top sorts every summary, then keeps the first limit entries.
func Top(summaries []model.MetricSummary, limit int) ([]types.Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	entries := Order(summaries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Find returns the entry of participantID within a full ordering.
func Find(entries []types.Entry, participantID string) (types.Entry, bool) {
	for _, e := range entries {
		if e.ParticipantID == participantID {
			return e, true
		}
	}
	return types.Entry{}, false
}

// Summarize computes dashboard statistics over ranked entries. An entry is
// recent when its run started within window before now.
func Summarize(entries []types.Entry, now time.Time, window time.Duration) types.Stats {
	st := types.Stats{TotalParticipants: len(entries)}
	if len(entries) == 0 {
		return st
	}
	var sum float64
	st.TopScore = entries[0].TotalScore
	cutoff := now.Add(-window).Unix()
	for _, e := range entries {
		sum += e.TotalScore
		if e.TotalScore > st.TopScore {
			st.TopScore = e.TotalScore
		}
		if e.Timestamp > cutoff {
			st.RecentEvaluations++
		}
	}
	st.AverageScore = sum / float64(len(entries))
	return st
}

func toEntry(s model.MetricSummary, rank int) types.Entry {
	metrics := maps.Clone(s.MetricScores)
	if metrics == nil {
		metrics = map[string]float64{}
	}
	return types.Entry{
		Rank:            rank,
		ParticipantID:   s.ParticipantID,
		ModelName:       s.ParticipantID,
		TotalScore:      s.TotalScore,
		MetricScores:    metrics,
		EvaluationCount: s.EvaluationCount,
		Timestamp:       s.Timestamp,
		Status:          types.StatusCompleted,
		RunID:           s.RunID,
		CategoryCounts:  maps.Clone(s.CategoryCounts),
	}
}
