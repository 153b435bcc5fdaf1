// Package runs picks the authoritative evaluation run of a participant from
// the output keys found under its storage namespace.
//
// Run identity only exists inside the key: the judge writes every run below
// a job directory named <job-prefix>-<participant>-<unix-seconds>. Keys that
// do not carry that name are not runs.
package runs

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/judgeboard/internal/domain/model"
)

const (
	defaultJobPrefix    = "llm-judge"
	defaultOutputSuffix = "_output.jsonl"
)

// Selector recognizes run outputs and orders them newest first.
type Selector struct {
	jobPrefix    string
	outputSuffix string
}

// NewSelector creates a selector with the judge's default naming.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		jobPrefix:    defaultJobPrefix,
		outputSuffix: defaultOutputSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) pattern(participantID string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|/)(` + regexp.QuoteMeta(s.jobPrefix+"-"+participantID+"-") + `(\d{10,}))(?:\D|$)`)
}

// Candidates returns every recognizable run output of participantID ordered
// by timestamp descending, then key descending. The first element, if any,
// is the latest run.
func (s *Selector) Candidates(participantID string, objects []model.Object) []model.RunRef {
	re := s.pattern(participantID)
	refs := make([]model.RunRef, 0, len(objects))
	for _, obj := range objects {
		if ref, ok := s.parse(re, participantID, obj); ok {
			refs = append(refs, ref)
		}
	}
	slices.SortFunc(refs, compareLatestFirst)
	return refs
}

// Latest returns the run with the greatest timestamp. Identical timestamps
// resolve to the lexicographically greatest key. ok is false when no key
// names a run.
func (s *Selector) Latest(participantID string, objects []model.Object) (model.RunRef, bool) {
	refs := s.Candidates(participantID, objects)
	if len(refs) == 0 {
		return model.RunRef{}, false
	}
	return refs[0], true
}

// Parse reports whether obj is a run output of participantID.
func (s *Selector) Parse(participantID string, obj model.Object) (model.RunRef, bool) {
	return s.parse(s.pattern(participantID), participantID, obj)
}

func (s *Selector) parse(re *regexp.Regexp, participantID string, obj model.Object) (model.RunRef, bool) {
	if s.outputSuffix != "" && !strings.HasSuffix(obj.Key, s.outputSuffix) {
		return model.RunRef{}, false
	}
	m := re.FindStringSubmatch(obj.Key)
	if m == nil {
		return model.RunRef{}, false
	}
	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		// overflowing timestamps cannot be ordered
		return model.RunRef{}, false
	}
	return model.RunRef{
		ParticipantID: participantID,
		RunID:         m[1],
		Timestamp:     ts,
		Key:           obj.Key,
		Size:          obj.Size,
		ModTime:       obj.ModTime,
	}, true
}

func compareLatestFirst(a, b model.RunRef) int {
	if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.Key, a.Key)
}
