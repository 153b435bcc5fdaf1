// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// JUDGEBOARD_CONFIG, then JUDGEBOARD_* environment variables.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// BucketURL selects the artifact bucket, e.g. "s3://results?region=us-east-1",
	// "gs://results", "file:///var/results" or "mem://".
	BucketURL string `koanf:"bucket_url" validate:"required"`

	// ResultsPrefix is the key prefix holding one namespace per participant.
	ResultsPrefix string `koanf:"results_prefix"`

	// JobPrefix is the judge job name prefix embedded in run output keys.
	JobPrefix string `koanf:"job_prefix" validate:"required"`

	// OutputSuffix filters run output keys. Empty accepts every key.
	OutputSuffix string `koanf:"output_suffix"`

	// WorkerCount bounds how many participants are processed at once.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// ParticipantTimeoutMS bounds the processing of one participant.
	ParticipantTimeoutMS int `koanf:"participant_timeout_ms" validate:"gt=0"`

	// RequestTimeoutMS bounds one leaderboard read.
	RequestTimeoutMS int `koanf:"request_timeout_ms" validate:"gt=0"`

	// DefaultLeaderboardLimit is used when GET /leaderboard has no limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit" validate:"gte=1,ltefield=MaxLeaderboardLimit"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gte=1"`

	// SummaryCacheSize is the number of run summaries kept in memory. 0 disables.
	SummaryCacheSize int `koanf:"summary_cache_size" validate:"gte=0"`

	// RateLimitRPS and RateLimitBurst shape the read API token bucket.
	// RateLimitRPS 0 disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`

	// RecentWindowHours is the window counted as recent in /stats.
	RecentWindowHours int `koanf:"recent_window_hours" validate:"gt=0"`

	// SeedDemo writes the demo dataset into the bucket before serving.
	// Meant for mem:// buckets.
	SeedDemo bool `koanf:"seed_demo"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		BucketURL:               "mem://",
		ResultsPrefix:           "evaluation-results/",
		JobPrefix:               "llm-judge",
		OutputSuffix:            "_output.jsonl",
		WorkerCount:             runtime.NumCPU() * 4,
		ParticipantTimeoutMS:    10_000,
		RequestTimeoutMS:        25_000,
		DefaultLeaderboardLimit: 50,
		MaxLeaderboardLimit:     500,
		SummaryCacheSize:        1024,
		RateLimitRPS:            20,
		RateLimitBurst:          40,
		RecentWindowHours:       24,
	}
}

// ParticipantTimeout returns ParticipantTimeoutMS as a duration.
func (c *Config) ParticipantTimeout() time.Duration {
	return time.Duration(c.ParticipantTimeoutMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RecentWindow returns RecentWindowHours as a duration.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowHours) * time.Hour
}
