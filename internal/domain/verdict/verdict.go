// Package verdict decodes judge output artifacts into typed verdict records.
//
// An artifact is newline-delimited JSON, one record per line. Decoding is
// line oriented: a line that fails to decode or validate is skipped with a
// warning and never aborts the artifact.
package verdict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
)

const defaultPreviewLen = 100

// wireRecord is the judge's per-example output line. Unknown fields are
// ignored; only the fields below take part in scoring.
type wireRecord struct {
	InputRecord               *wireInput  `json:"inputRecord"`
	AutomatedEvaluationResult *wireResult `json:"automatedEvaluationResult" validate:"required"`
}

type wireInput struct {
	Category *string `json:"category"`
}

type wireResult struct {
	Scores []wireScore `json:"scores" validate:"dive"`
}

type wireScore struct {
	MetricName string   `json:"metricName" validate:"required"`
	Result     *float64 `json:"result" validate:"required"`
}

// Result is the outcome of parsing one artifact.
type Result struct {
	Records   []model.VerdictRecord
	Lines     int // non-blank lines seen
	Malformed int
}

// Parser decodes artifacts. It is safe for concurrent use.
type Parser struct {
	validate   *validator.Validate
	logger     logger.Logger
	previewLen int
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		previewLen: defaultPreviewLen,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("verdict")
	}
	return p
}

// Parse decodes every line of data. source names the artifact in logs. An
// empty or all-malformed artifact yields no records and no error.
func (p *Parser) Parse(ctx context.Context, source string, data []byte) Result {
	var res Result
	lineNo := 0
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		res.Lines++

		rec, err := p.ParseLine(line)
		if err != nil {
			res.Malformed++
			p.logger.Warn(ctx, "skipping malformed verdict line",
				logger.String("artifact", source),
				logger.Int("line", lineNo),
				logger.String("preview", p.preview(line)),
				logger.Error(err),
			)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// ParseLine decodes and validates a single line.
func (p *Parser) ParseLine(line []byte) (model.VerdictRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(line, &w); err != nil {
		return model.VerdictRecord{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	if err := p.validate.Struct(w); err != nil {
		return model.VerdictRecord{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	rec := model.VerdictRecord{
		Category: model.DefaultCategory,
		Scores:   make([]model.MetricScore, 0, len(w.AutomatedEvaluationResult.Scores)),
	}
	if w.InputRecord != nil && w.InputRecord.Category != nil {
		if c := strings.TrimSpace(*w.InputRecord.Category); c != "" {
			rec.Category = c
		}
	}
	for _, s := range w.AutomatedEvaluationResult.Scores {
		rec.Scores = append(rec.Scores, model.MetricScore{Metric: s.MetricName, Score: *s.Result})
	}
	return rec, nil
}

func (p *Parser) preview(line []byte) string {
	if len(line) <= p.previewLen {
		return string(line)
	}
	return string(line[:p.previewLen]) + "..."
}
