package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"phoenix/internal/config"
	"phoenix/internal/evo"
	"phoenix/internal/metrics"
	"phoenix/pkg/phoenix"
)

var stdout io.Writer = os.Stdout

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "checkpoints":
		return runCheckpoints(ctx, args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "mutators":
		return runMutators(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	runID := fs.String("run-id", "", "explicit run id (optional)")
	population := fs.Int("pop", 0, "population size")
	genomeLength := fs.Int("genome-len", 0, "genes per organism")
	generations := fs.Int("gens", 0, "generation count")
	seed := fs.Int64("seed", 0, "rng seed")
	mutator := fs.String("mutator", "", "mutation strategy: "+strings.Join(evo.ListMutators(), "|"))
	rate := fs.Float64("rate", 0, "per-gene mutation probability")
	sigma := fs.Float64("sigma", 0, "gaussian mutation standard deviation")
	artifactsDir := fs.String("artifacts-dir", "", "write run artifacts under this directory")
	metricsOut := fs.String("metrics-out", "", "write Prometheus text metrics to this file")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pop":
			cfg.Engine.Population = *population
		case "genome-len":
			cfg.Engine.GenomeLength = *genomeLength
		case "gens":
			cfg.Run.Generations = *generations
		case "seed":
			cfg.Run.Seed = *seed
		case "mutator":
			cfg.Mutation.Strategy = *mutator
		case "rate":
			cfg.Mutation.Rate = *rate
		case "sigma":
			cfg.Mutation.Sigma = *sigma
		case "artifacts-dir":
			cfg.Run.ArtifactsDir = *artifactsDir
		case "metrics-out":
			cfg.Run.MetricsOut = *metricsOut
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector(metrics.DefaultNamespace)
	client, err := newClient(ctx, cfg, logger, collector)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(ctx, phoenix.RunRequest{
		RunID:            *runID,
		Population:       cfg.Engine.Population,
		GenomeLength:     cfg.Engine.GenomeLength,
		Generations:      cfg.Run.Generations,
		Seed:             cfg.Run.Seed,
		CheckpointPrefix: cfg.Run.CheckpointPrefix,
	})
	if err != nil {
		return err
	}

	if cfg.Run.MetricsOut != "" {
		if err := collector.WriteTextfile(cfg.Run.MetricsOut); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.WithField("path", cfg.Run.MetricsOut).Info("metrics written")
	}

	if *jsonOut {
		return writeJSON(summary)
	}

	fmt.Fprintln(stdout, "== phoenix run ==")
	fmt.Fprintf(stdout, "run_id=%s layer=%s population=%d genome_len=%d\n", summary.RunID, cfg.Engine.Layer, cfg.Engine.Population, cfg.Engine.GenomeLength)
	for _, entry := range summary.History {
		fmt.Fprintf(stdout, "gen %2d | best %7.3f | mean %7.3f | worst %7.3f\n", entry.Generation, entry.Best, entry.Mean, entry.Worst)
	}
	for _, id := range summary.Checkpoints {
		fmt.Fprintf(stdout, "checkpoint saved: %s\n", id)
	}
	fmt.Fprintf(stdout, "recovered checkpoint %s | generation counter still = %d | pop=%d\n", summary.RecoveredFrom, summary.Generation, summary.Recovered.Size)
	fmt.Fprintf(stdout, "after recovery | best %7.3f | mean %7.3f | worst %7.3f\n", summary.Recovered.Best, summary.Recovered.Mean, summary.Recovered.Worst)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(stdout, "artifacts: %s\n", summary.ArtifactsDir)
	}
	return nil
}

func runCheckpoints(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkpoints", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	jsonOut := fs.Bool("json", false, "emit checkpoint ids as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	ids, err := client.Checkpoints(ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(ids)
	}
	if len(ids) == 0 {
		fmt.Fprintln(stdout, "no checkpoints found")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "checkpoint id")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("inspect requires --id")
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, top, err := client.Inspect(ctx, *id)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(map[string]any{
			"checkpoint_id": *id,
			"summary":       summary,
			"leaderboard":   top,
		})
	}

	fmt.Fprintf(stdout, "checkpoint=%s size=%d genome_len=%d best=%.6f mean=%.6f worst=%.6f\n",
		*id,
		summary.Size,
		summary.GenomeLength,
		summary.Best,
		summary.Mean,
		summary.Worst,
	)
	for _, entry := range top {
		fmt.Fprintf(stdout, "rank=%d id=%s fitness=%.6f\n", entry.Rank, entry.ID, entry.Fitness)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	artifactsDir := fs.String("artifacts-dir", "", "artifacts directory holding run_index.json")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if *artifactsDir != "" {
		cfg.Run.ArtifactsDir = *artifactsDir
	}
	logger, err := newLogger(cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.Runs(*limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s layer=%s seed=%d pop=%d gens=%d final_best_fitness=%.6f\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Layer,
			e.Seed,
			e.PopulationSize,
			e.Generations,
			e.FinalBestFitness,
		)
	}
	return nil
}

func runMutators(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("mutators", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range evo.ListMutators() {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func newClient(ctx context.Context, cfg config.Config, logger logrus.FieldLogger, collector *metrics.Collector) (*phoenix.Client, error) {
	return phoenix.NewClient(ctx, phoenix.Options{
		Layer:   cfg.Engine.Layer,
		Store:   cfg.StorageOptions(),
		Mutator: cfg.Mutation.Strategy,
		Mutation: &evo.MutationParams{
			Rate:  cfg.Mutation.Rate,
			Sigma: cfg.Mutation.Sigma,
		},
		TournamentSize: cfg.Engine.TournamentSize,
		ArtifactsDir:   cfg.Run.ArtifactsDir,
		Logger:         logger,
		Metrics:        collector,
	})
}

func newLogger(level string) (*logrus.Logger, error) {
	if level == "" {
		level = config.DefaultLogLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parsed)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func writeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: phoenixctl <run|checkpoints|inspect|runs|mutators> [flags]", msg)
}
