package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/config"
	"github.com/okian/judgeboard/internal/domain/runs"
	"github.com/okian/judgeboard/internal/seed"
	"github.com/okian/judgeboard/pkg/logger"
)

// globalFlags override config loaded from the environment.
type globalFlags struct {
	bucket  string
	prefix  string
	verbose bool
}

func buildRootCmd() *cobra.Command {
	var g globalFlags
	cmd := &cobra.Command{
		Use:           "judgeboard-cli",
		Short:         "Inspect and seed LLM judge result buckets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.bucket, "bucket", "", "Bucket URL (overrides JUDGEBOARD_BUCKET_URL)")
	cmd.PersistentFlags().StringVar(&g.prefix, "prefix", "", "Results prefix (overrides JUDGEBOARD_RESULTS_PREFIX)")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(
		buildTopCmd(&g),
		buildInspectCmd(&g),
		buildSeedCmd(&g),
	)
	return cmd
}

func buildTopCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Compute and print the leaderboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(ctx context.Context, _ *config.Config, _ *repository.BlobStore, svc *service.Service) error {
				lb, err := svc.Leaderboard(ctx, limit)
				if err != nil {
					return err
				}
				renderLeaderboard(cmd.OutOrStdout(), lb)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to print")
	return cmd
}

func buildInspectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [participant-id]",
		Short: "Show candidate runs for a participant and which one is ranked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), g, func(ctx context.Context, _ *config.Config, _ *repository.BlobStore, svc *service.Service) error {
				in, err := svc.Inspect(ctx, args[0])
				if err != nil {
					return err
				}
				renderInspection(cmd.OutOrStdout(), in)
				return nil
			})
		},
	}
}

func buildSeedCmd(g *globalFlags) *cobra.Command {
	sc := seed.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a deterministic demo dataset into the bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), g, func(ctx context.Context, cfg *config.Config, store *repository.BlobStore, _ *service.Service) error {
				sc.Prefix = store.Prefix()
				sc.JobPrefix = cfg.JobPrefix
				st, err := seed.Run(ctx, store, sc, newLogger(g))
				if err != nil {
					return err
				}
				renderSeedStats(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&sc.Participants, "participants", sc.Participants, "Number of participants")
	cmd.Flags().IntVar(&sc.RunsPerParticipant, "runs", sc.RunsPerParticipant, "Runs per participant")
	cmd.Flags().IntVar(&sc.RecordsPerRun, "records", sc.RecordsPerRun, "Verdict lines per run")
	cmd.Flags().IntVar(&sc.MalformedEvery, "malformed-every", sc.MalformedEvery, "Corrupt every Nth line (0 disables)")
	cmd.Flags().Int64Var(&sc.BaseTimestamp, "base-timestamp", sc.BaseTimestamp, "Unix time of the first run")
	cmd.Flags().Uint64Var(&sc.Seed, "seed", sc.Seed, "Random seed")
	cmd.Flags().StringSliceVar(&sc.Metrics, "metrics", sc.Metrics, "Metric names scored on every line")
	return cmd
}

type serviceFunc func(ctx context.Context, cfg *config.Config, store *repository.BlobStore, svc *service.Service) error

// withService loads config, opens the bucket and builds the engine for fn.
func withService(ctx context.Context, g *globalFlags, fn serviceFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}
	log := newLogger(g)

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()

	store, err := repository.OpenBlobStore(ctx, cfg.BucketURL,
		repository.WithResultsPrefix(cfg.ResultsPrefix),
		repository.WithOperationTimeout(cfg.ParticipantTimeout()),
		repository.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	// One-shot process: no summary cache.
	svc := service.New(store,
		service.WithLogger(log),
		service.WithSelector(runs.NewSelector(
			runs.WithJobPrefix(cfg.JobPrefix),
			runs.WithOutputSuffix(cfg.OutputSuffix),
		)),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithParticipantTimeout(cfg.ParticipantTimeout()),
		service.WithRecentWindow(cfg.RecentWindow()),
	)
	return fn(ctx, cfg, store, svc)
}

func loadConfig(ctx context.Context, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.bucket != "" {
		cfg.BucketURL = g.bucket
	}
	if g.prefix != "" {
		cfg.ResultsPrefix = g.prefix
	}
	return cfg, config.Validate(cfg)
}

func newLogger(g *globalFlags) logger.Logger {
	var w io.Writer = io.Discard
	if g.verbose {
		w = os.Stderr
	}
	return logger.New(logger.WithWriter(w)).Named("cli")
}

func formatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
