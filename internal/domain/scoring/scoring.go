// Package scoring summarizes the verdict records of one run.
package scoring

import (
	"maps"
	"math"
	"slices"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Summarizer folds a run's verdict records into a MetricSummary.
type Summarizer interface {
	// Summarize returns ok=false when records is empty; such a run carries
	// no data and must not be ranked.
	Summarize(run model.RunRef, records []model.VerdictRecord) (model.MetricSummary, bool)
}

// MeanSummarizer averages each metric over the records that report it and
// scores the run as the unweighted mean of those metric means. A metric seen
// in one record weighs as much in the total as one seen in every record.
type MeanSummarizer struct{}

// NewMeanSummarizer creates a MeanSummarizer.
func NewMeanSummarizer() *MeanSummarizer {
	return &MeanSummarizer{}
}

type accumulator struct {
	sum    float64
	values []float64
}

// mean returns the arithmetic mean of values. When the plain sum overflows
// it falls back to an incremental mean, which stays within the input range.
func mean(sum float64, values []float64) float64 {
	n := float64(len(values))
	if m := sum / n; !math.IsInf(m, 0) && !math.IsNaN(m) {
		return m
	}
	var m float64
	for i, v := range values {
		k := float64(i + 1)
		m += v/k - m/k
	}
	return m
}

// Summarize implements Summarizer.
func (MeanSummarizer) Summarize(run model.RunRef, records []model.VerdictRecord) (model.MetricSummary, bool) {
	if len(records) == 0 {
		return model.MetricSummary{}, false
	}

	acc := make(map[string]*accumulator)
	categories := make(map[string]int)
	for _, rec := range records {
		categories[rec.Category]++
		for _, s := range rec.Scores {
			a, ok := acc[s.Metric]
			if !ok {
				a = &accumulator{}
				acc[s.Metric] = a
			}
			a.sum += s.Score
			a.values = append(a.values, s.Score)
		}
	}

	metricScores := make(map[string]float64, len(acc))
	for name, a := range acc {
		metricScores[name] = mean(a.sum, a.values)
	}

	// Fixed summation order keeps the total bit-identical across calls.
	var total float64
	names := slices.Sorted(maps.Keys(metricScores))
	if len(names) > 0 {
		means := make([]float64, len(names))
		for i, name := range names {
			means[i] = metricScores[name]
			total += means[i]
		}
		total = mean(total, means)
	}

	return model.MetricSummary{
		ParticipantID:   run.ParticipantID,
		RunID:           run.RunID,
		TotalScore:      total,
		MetricScores:    metricScores,
		CategoryCounts:  categories,
		EvaluationCount: len(records),
		Timestamp:       run.Timestamp,
	}, true
}
