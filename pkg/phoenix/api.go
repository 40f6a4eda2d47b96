// Package phoenix is the embeddable entry point to the evolution engine.
// A Client owns one engine, its checkpoint store and optional telemetry.
package phoenix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"phoenix/internal/evo"
	"phoenix/internal/metrics"
	"phoenix/internal/model"
	"phoenix/internal/stats"
	"phoenix/internal/storage"
)

const (
	DefaultLayer            = "L3_organisms::O4_day_mohk"
	DefaultPopulation       = 32
	DefaultGenomeLength     = 12
	DefaultGenerations      = 8
	DefaultCheckpointPrefix = "demo"
	DefaultLeaderboardSize  = 5
)

// Options configures a Client. A nil Mutation selects the gaussian
// mutator's package defaults; a non-nil one is used as given.
type Options struct {
	Layer          string
	Store          storage.Options
	Mutator        string
	Mutation       *evo.MutationParams
	TournamentSize int
	ArtifactsDir   string
	Logger         logrus.FieldLogger
	Metrics        *metrics.Collector
}

type Client struct {
	mu sync.Mutex

	engine    *evo.Engine
	store     storage.CheckpointStore
	mutator   evo.Mutator
	engineOps []evo.Option

	layer        string
	mutatorName  string
	mutation     evo.MutationParams
	storeKind    string
	artifactsDir string
	log          logrus.FieldLogger
}

type Snapshot struct {
	Layer      string
	Generation int
	Population []model.Organism
}

// RunRequest fields left at zero take the package defaults.
type RunRequest struct {
	RunID            string
	Population       int
	GenomeLength     int
	Generations      int
	Seed             int64
	CheckpointPrefix string
	Fitness          func(model.Genome) float64
}

type RunSummary struct {
	RunID            string
	History          []stats.GenerationStats
	FinalBestFitness float64
	Checkpoints      []string
	RecoveredFrom    string
	Recovered        stats.Summary
	Generation       int
	Leaderboard      []stats.TopOrganism
	ArtifactsDir     string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	layer := opts.Layer
	if layer == "" {
		layer = DefaultLayer
	}
	mutatorName := opts.Mutator
	if mutatorName == "" {
		mutatorName = evo.GaussianMutator{}.Name()
	}
	params := evo.MutationParams{Rate: evo.DefaultMutationRate, Sigma: evo.DefaultMutationSigma}
	if opts.Mutation != nil {
		params = *opts.Mutation
	}
	if params.Rate < 0 || params.Rate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0,1], got %g", params.Rate)
	}
	mutator, err := evo.ResolveMutator(mutatorName, params)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	store, err := storage.NewStore(ctx, opts.Store)
	if err != nil {
		return nil, err
	}

	engineOps := []evo.Option{evo.WithLogger(log)}
	if opts.TournamentSize > 0 {
		engineOps = append(engineOps, evo.WithTournamentSize(opts.TournamentSize))
	}
	if opts.Metrics != nil {
		store = metrics.NewInstrumentedStore(store, opts.Metrics)
		engineOps = append(engineOps, evo.WithObserver(opts.Metrics))
	}

	storeKind := opts.Store.Kind
	if storeKind == "" {
		storeKind = storage.DefaultKind
	}

	c := &Client{
		store:        store,
		mutator:      mutator,
		engineOps:    engineOps,
		layer:        layer,
		mutatorName:  mutatorName,
		mutation:     params,
		storeKind:    storeKind,
		artifactsDir: opts.ArtifactsDir,
		log:          log,
	}
	c.engine = c.newEngine(nil)
	return c, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Seed replaces the engine with a fresh random population at generation 0.
func (c *Client) Seed(rng *rand.Rand, size, genomeLength int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed(rng, size, genomeLength)
}

func (c *Client) Evolve(rng *rand.Rand, offspringCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Evolve(rng, offspringCount)
}

func (c *Client) Score(fitness func(model.Genome) float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Score(fitness)
}

func (c *Client) Checkpoint(ctx context.Context, checkpointID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Checkpoint(ctx, checkpointID)
}

func (c *Client) Recover(ctx context.Context, checkpointID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Recover(ctx, checkpointID)
}

func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Layer:      c.engine.Layer(),
		Generation: c.engine.Generation(),
		Population: c.engine.Population(),
	}
}

// Checkpoints lists the ids held by the store, when it can list.
func (c *Client) Checkpoints(ctx context.Context) ([]string, error) {
	lister, ok := c.store.(storage.Lister)
	if !ok {
		return nil, fmt.Errorf("store %s does not support listing", c.storeKind)
	}
	return lister.List(ctx)
}

// Inspect loads a checkpoint without touching the live population.
func (c *Client) Inspect(ctx context.Context, checkpointID string) (stats.Summary, []stats.TopOrganism, error) {
	population, err := c.store.Load(ctx, checkpointID)
	if err != nil {
		return stats.Summary{}, nil, err
	}
	return stats.Summarize(population), stats.Leaderboard(population, DefaultLeaderboardSize), nil
}

// Runs returns indexed runs under the artifacts directory, newest first.
func (c *Client) Runs(limit int) ([]stats.RunIndexEntry, error) {
	if c.artifactsDir == "" {
		return nil, errors.New("artifacts directory is not configured")
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Run seeds a population, evolves it for the requested generations with
// checkpoints at generation 0 and mid-run, then recovers the first
// checkpoint. The generation counter is not rewound by the recovery.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Population <= 0 {
		req.Population = DefaultPopulation
	}
	if req.GenomeLength <= 0 {
		req.GenomeLength = DefaultGenomeLength
	}
	if req.Generations <= 0 {
		req.Generations = DefaultGenerations
	}
	if req.CheckpointPrefix == "" {
		req.CheckpointPrefix = DefaultCheckpointPrefix
	}
	if req.RunID == "" {
		req.RunID = fmt.Sprintf("%s-%d", req.CheckpointPrefix, req.Seed)
	}
	if req.Fitness == nil {
		req.Fitness = PeakFitness
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rng := rand.New(rand.NewSource(req.Seed))
	c.seed(rng, req.Population, req.GenomeLength)
	c.engine.Score(req.Fitness)

	log := c.log.WithFields(logrus.Fields{"run_id": req.RunID, "layer": c.layer})
	summary := RunSummary{
		RunID:       req.RunID,
		History:     make([]stats.GenerationStats, 0, req.Generations+1),
		Checkpoints: make([]string, 0, 2),
	}

	for g := 0; g < req.Generations; g++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}

		current := stats.Summarize(c.engine.Population()).AtGeneration(c.engine.Generation())
		summary.History = append(summary.History, current)
		log.WithFields(logrus.Fields{
			"generation": current.Generation,
			"best":       current.Best,
			"mean":       current.Mean,
			"worst":      current.Worst,
		}).Debug("generation scored")

		if g == 0 || g == req.Generations/2 {
			checkpointID := fmt.Sprintf("%s_gen_%d", req.CheckpointPrefix, g)
			if err := c.engine.Checkpoint(ctx, checkpointID); err != nil {
				return RunSummary{}, fmt.Errorf("checkpoint %s: %w", checkpointID, err)
			}
			summary.Checkpoints = append(summary.Checkpoints, checkpointID)
		}

		c.engine.Evolve(rng, req.Population)
		c.engine.Score(req.Fitness)
	}

	final := c.engine.Population()
	finalStats := stats.Summarize(final)
	summary.History = append(summary.History, finalStats.AtGeneration(c.engine.Generation()))
	summary.FinalBestFitness = finalStats.Best
	summary.Leaderboard = stats.Leaderboard(final, DefaultLeaderboardSize)

	summary.RecoveredFrom = summary.Checkpoints[0]
	if err := c.engine.Recover(ctx, summary.RecoveredFrom); err != nil {
		return RunSummary{}, fmt.Errorf("recover %s: %w", summary.RecoveredFrom, err)
	}
	summary.Recovered = stats.Summarize(c.engine.Population())
	summary.Generation = c.engine.Generation()

	if c.artifactsDir != "" {
		runDir, err := c.writeArtifacts(req, summary)
		if err != nil {
			return RunSummary{}, err
		}
		summary.ArtifactsDir = runDir
	}

	log.WithFields(logrus.Fields{
		"generation":     summary.Generation,
		"final_best":     summary.FinalBestFitness,
		"recovered_from": summary.RecoveredFrom,
	}).Info("run completed")
	return summary, nil
}

// PeakFitness rewards genes near 0.8: each gene scores 1-|g-0.8| and the
// total is floored at 0.
func PeakFitness(genome model.Genome) float64 {
	const target = 0.8
	total := 0.0
	for _, gene := range genome {
		total += 1 - math.Abs(gene-target)
	}
	return math.Max(total, 0)
}

func (c *Client) seed(rng *rand.Rand, size, genomeLength int) {
	population := make([]model.Organism, 0, size)
	for i := 0; i < size; i++ {
		population = append(population, model.Organism{
			ID:     fmt.Sprintf("organism-%d", i),
			Genome: model.RandomGenome(rng, genomeLength),
		})
	}
	c.engine = c.newEngine(population)
}

func (c *Client) newEngine(population []model.Organism) *evo.Engine {
	return evo.NewEngine(c.layer, c.mutator, c.store, population, c.engineOps...)
}

func (c *Client) writeArtifacts(req RunRequest, summary RunSummary) (string, error) {
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          req.RunID,
			Layer:          c.layer,
			PopulationSize: req.Population,
			GenomeLength:   req.GenomeLength,
			Generations:    req.Generations,
			Seed:           req.Seed,
			Mutator:        c.mutatorName,
			MutationRate:   c.mutation.Rate,
			MutationSigma:  c.mutation.Sigma,
			StoreKind:      c.storeKind,
		},
		History:          summary.History,
		FinalBestFitness: summary.FinalBestFitness,
		TopOrganisms:     summary.Leaderboard,
		Checkpoints:      summary.Checkpoints,
	})
	if err != nil {
		return "", fmt.Errorf("write run artifacts: %w", err)
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            req.RunID,
		Layer:            c.layer,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Seed:             req.Seed,
		FinalBestFitness: summary.FinalBestFitness,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return "", fmt.Errorf("append run index: %w", err)
	}
	return runDir, nil
}
