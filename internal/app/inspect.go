package service

import (
	"context"
	"fmt"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Inspection explains how one participant's run was chosen.
type Inspection struct {
	ParticipantID string
	// Candidates are every recognised run output, newest first.
	Candidates []model.RunRef
	// Selected is the summary of the run that would be ranked, nil when
	// the participant is excluded.
	Selected *model.MetricSummary
	// SelectedKey is the storage key of the latest run still present.
	SelectedKey string
	// Reason is set when Selected is nil.
	Reason string
}

// Inspect resolves the participant's candidate runs the same way a
// leaderboard read does, without ranking.
func (s *Service) Inspect(ctx context.Context, participantID string) (Inspection, error) {
	ctx, span := s.tracer.Start(ctx, "service.Service.Inspect")
	defer span.End()

	objs, err := s.store.ListObjects(ctx, participantID)
	if err != nil {
		return Inspection{}, fmt.Errorf("list runs: %w", err)
	}
	in := Inspection{
		ParticipantID: participantID,
		Candidates:    s.selector.Candidates(participantID, objs),
		Reason:        metrics.ReasonNoRun,
	}
	if len(in.Candidates) == 0 {
		return in, nil
	}
	for _, run := range in.Candidates {
		sum, found, err := s.summarizeRun(ctx, run)
		if err != nil {
			return Inspection{}, err
		}
		if !found {
			continue
		}
		in.SelectedKey = run.Key
		if sum.EvaluationCount == 0 {
			in.Reason = metrics.ReasonNoRecords
			return in, nil
		}
		in.Selected = &sum
		in.Reason = ""
		return in, nil
	}
	return in, nil
}
