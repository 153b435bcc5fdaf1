package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/judgeboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.BucketURL, convey.ShouldEqual, "mem://")
				convey.So(cfg.ResultsPrefix, convey.ShouldEqual, "evaluation-results/")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
				convey.So(cfg.DefaultLeaderboardLimit, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("JUDGEBOARD_ADDR", ":8080")
			_ = os.Setenv("JUDGEBOARD_BUCKET_URL", "file:///tmp/results")
			_ = os.Setenv("JUDGEBOARD_WORKER_COUNT", "16")
			_ = os.Setenv("JUDGEBOARD_PARTICIPANT_TIMEOUT_MS", "2500")
			_ = os.Setenv("JUDGEBOARD_RATE_LIMIT_RPS", "2.5")
			_ = os.Setenv("JUDGEBOARD_SEED_DEMO", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BucketURL, convey.ShouldEqual, "file:///tmp/results")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.ParticipantTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.SeedDemo, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# local bucket
addr: ":9090"
bucket_url: "s3://results?region=eu-west-1"
results_prefix: "runs/"
worker_count: 24
summary_cache_size: 0
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("JUDGEBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BucketURL, convey.ShouldEqual, "s3://results?region=eu-west-1")
				convey.So(cfg.ResultsPrefix, convey.ShouldEqual, "runs/")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.SummaryCacheSize, convey.ShouldEqual, 0)
				convey.So(cfg.JobPrefix, convey.ShouldEqual, "llm-judge")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 24\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("JUDGEBOARD_CONFIG", tmpFile)
			_ = os.Setenv("JUDGEBOARD_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("JUDGEBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("JUDGEBOARD_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("JUDGEBOARD_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given config values violating constraints", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When the YAML file empties addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("JUDGEBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the default limit exceeds the maximum", func() {
			_ = os.Setenv("JUDGEBOARD_DEFAULT_LEADERBOARD_LIMIT", "1000")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a timeout is zero", func() {
			_ = os.Setenv("JUDGEBOARD_REQUEST_TIMEOUT_MS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			_ = os.Setenv("JUDGEBOARD_LOG_FORMAT", "xml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"JUDGEBOARD_CONFIG",
		"JUDGEBOARD_ADDR",
		"JUDGEBOARD_BUCKET_URL",
		"JUDGEBOARD_WORKER_COUNT",
		"JUDGEBOARD_PARTICIPANT_TIMEOUT_MS",
		"JUDGEBOARD_REQUEST_TIMEOUT_MS",
		"JUDGEBOARD_RATE_LIMIT_RPS",
		"JUDGEBOARD_DEFAULT_LEADERBOARD_LIMIT",
		"JUDGEBOARD_LOG_FORMAT",
		"JUDGEBOARD_SEED_DEMO",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "judgeboard-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
