// Package seed writes deterministic judge output fixtures into a bucket, in
// the judge's layout, for local runs and demos.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/judgeboard/internal/adapters/repository"
	"github.com/okian/judgeboard/pkg/logger"
)

// Performance tiers; each participant is assigned one by index.
const (
	tierElite = iota
	tierHigh
	tierAverage
	tierLow
	tierCount
)

// Score distribution per tier: base mean and spread. Tier ranges do not
// overlap, so a seeded bucket always ranks tiers in order.
var tierScores = [tierCount][2]float64{ //nolint:gochecknoglobals // lookup table
	tierElite:   {0.9, 0.1},
	tierHigh:    {0.72, 0.1},
	tierAverage: {0.5, 0.2},
	tierLow:     {0.25, 0.2},
}

// fixtureNamespace seeds name-based job ids so reruns produce the same keys.
var fixtureNamespace = uuid.MustParse("6f1c2a1e-3b8d-4c55-9a43-0d3c8f5b2e71") //nolint:gochecknoglobals // constant uuid

// Artifact is one run output to be written.
type Artifact struct {
	ParticipantID string
	Timestamp     int64
	Key           string
	Data          []byte
	Records       int
	Malformed     int
}

type line struct {
	InputRecord               inputRecord      `json:"inputRecord"`
	ModelResponses            []modelResponse  `json:"modelResponses"`
	AutomatedEvaluationResult evaluationResult `json:"automatedEvaluationResult"`
}

type inputRecord struct {
	Prompt            string `json:"prompt"`
	ReferenceResponse string `json:"referenceResponse"`
	Category          string `json:"category,omitempty"`
}

type modelResponse struct {
	Response        string `json:"response"`
	ModelIdentifier string `json:"modelIdentifier"`
}

type evaluationResult struct {
	Scores []score `json:"scores"`
}

type score struct {
	MetricName string  `json:"metricName"`
	Result     float64 `json:"result"`
}

// ParticipantID names the i-th fixture participant.
func ParticipantID(i int) string {
	return fmt.Sprintf("team-%02d", i+1)
}

// Generate builds every artifact described by cfg. Output depends only on cfg.
func Generate(cfg Config) ([]Artifact, error) {
	if cfg.Participants < 1 || cfg.RunsPerParticipant < 1 || cfg.RecordsPerRun < 0 || len(cfg.Metrics) == 0 {
		return nil, fmt.Errorf("%w: participants, runs and metrics must be positive", ErrInvalidConfig)
	}
	if cfg.JobPrefix == "" {
		return nil, fmt.Errorf("%w: job prefix is empty", ErrInvalidConfig)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	out := make([]Artifact, 0, cfg.Participants*cfg.RunsPerParticipant)
	for p := 0; p < cfg.Participants; p++ {
		id := ParticipantID(p)
		tier := tierScores[p%tierCount]
		for r := 0; r < cfg.RunsPerParticipant; r++ {
			ts := cfg.BaseTimestamp + int64(r)*cfg.RunInterval + int64(p)
			art, err := generateRun(rng, cfg, id, ts, tier)
			if err != nil {
				return nil, err
			}
			out = append(out, art)
		}
	}
	return out, nil
}

func generateRun(rng *rand.Rand, cfg Config, id string, ts int64, tier [2]float64) (Artifact, error) {
	runID := cfg.JobPrefix + "-" + id + "-" + strconv.FormatInt(ts, 10)
	jobID := uuid.NewSHA1(fixtureNamespace, []byte(runID))
	key := fmt.Sprintf("%s%s/%s/%s/models/%s/datasets/%s/%s_output.jsonl",
		cfg.Prefix, id, runID, jobID, id, "eval-set", uuid.NewSHA1(jobID, []byte("output")))

	var buf bytes.Buffer
	art := Artifact{ParticipantID: id, Timestamp: ts, Key: key}
	for i := 0; i < cfg.RecordsPerRun; i++ {
		if cfg.MalformedEvery > 0 && (i+1)%cfg.MalformedEvery == 0 {
			buf.WriteString(`{"inputRecord":` + "\n")
			art.Malformed++
			continue
		}
		l := line{
			InputRecord: inputRecord{
				Prompt:            fmt.Sprintf("question %d", i+1),
				ReferenceResponse: fmt.Sprintf("answer %d", i+1),
			},
			ModelResponses: []modelResponse{{Response: fmt.Sprintf("response %d", i+1), ModelIdentifier: id}},
		}
		if n := len(cfg.Categories); n > 0 {
			l.InputRecord.Category = cfg.Categories[i%n]
		}
		for _, m := range cfg.Metrics {
			v := tier[0] + (rng.Float64()-0.5)*tier[1]
			l.AutomatedEvaluationResult.Scores = append(l.AutomatedEvaluationResult.Scores, score{
				MetricName: m,
				Result:     math.Round(clamp(v)*1000) / 1000,
			})
		}
		b, err := json.Marshal(l)
		if err != nil {
			return Artifact{}, fmt.Errorf("encode line %d of %s: %w", i+1, key, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
		art.Records++
	}
	art.Data = buf.Bytes()
	return art, nil
}

// Write stores artifacts concurrently.
func Write(ctx context.Context, w repository.Writer, artifacts []Artifact, workers int, log logger.Logger) (Stats, error) {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := w.Put(gctx, a.Key, a.Data); err != nil {
				return fmt.Errorf("write %s: %w", a.Key, err)
			}
			log.Debug(gctx, "fixture written",
				logger.String("participant", a.ParticipantID), logger.String("key", a.Key))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var st Stats
	seen := make(map[string]struct{})
	for _, a := range artifacts {
		seen[a.ParticipantID] = struct{}{}
		st.Runs++
		st.Records += a.Records
		st.Malformed += a.Malformed
		st.Bytes += int64(len(a.Data))
	}
	st.Participants = len(seen)
	return st, nil
}

// Run generates and writes the dataset described by cfg.
func Run(ctx context.Context, w repository.Writer, cfg Config, log logger.Logger) (Stats, error) {
	artifacts, err := Generate(cfg)
	if err != nil {
		return Stats{}, err
	}
	st, err := Write(ctx, w, artifacts, cfg.Workers, log)
	if err != nil {
		return Stats{}, err
	}
	log.Info(ctx, "seeded bucket",
		logger.Int("participants", st.Participants),
		logger.Int("runs", st.Runs),
		logger.Int("records", st.Records),
		logger.Int64("bytes", st.Bytes))
	return st, nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
