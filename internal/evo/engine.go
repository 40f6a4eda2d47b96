package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"phoenix/internal/model"
	"phoenix/internal/storage"
)

var ErrEmptySnapshot = errors.New("checkpoint holds an empty population")

// Observer receives engine events. The Prometheus collector in
// internal/metrics implements it.
type Observer interface {
	ObserveGeneration(layer string, generation, populationSize int)
	ObserveCheckpoint(layer, checkpointID string, err error)
	ObserveRecover(layer, checkpointID string, err error)
}

type Option func(*Engine)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

func WithTournamentSize(size int) Option {
	return func(e *Engine) {
		e.selector.Size = size
	}
}

// Engine runs generational evolution over a population of organisms and
// persists it through a CheckpointStore.
//
// Engine is not safe for concurrent use; callers serialize Evolve,
// Checkpoint and Recover themselves.
type Engine struct {
	layer      string
	generation int
	population []model.Organism

	mutator  Mutator
	store    storage.CheckpointStore
	selector TournamentSelector

	log      logrus.FieldLogger
	observer Observer
}

// NewEngine copies population and starts at generation 0. A nil mutator
// disables mutation; a nil store falls back to an in-memory store.
func NewEngine(layer string, mutator Mutator, store storage.CheckpointStore, population []model.Organism, opts ...Option) *Engine {
	if mutator == nil {
		mutator = NoopMutator{}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Engine{
		layer:      layer,
		population: model.ClonePopulation(population),
		mutator:    mutator,
		store:      store,
		selector:   TournamentSelector{Size: DefaultTournamentSize},
		log:        discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Layer() string {
	return e.layer
}

func (e *Engine) Generation() int {
	return e.generation
}

func (e *Engine) PopulationSize() int {
	return len(e.population)
}

// Population returns a deep copy of the current population.
func (e *Engine) Population() []model.Organism {
	return model.ClonePopulation(e.population)
}

// Score assigns fitness to every organism from its genome.
func (e *Engine) Score(fitness func(model.Genome) float64) {
	for i := range e.population {
		e.population[i].Fitness = fitness(e.population[i].Genome)
	}
}

func (e *Engine) SetFitness(index int, fitness float64) error {
	if index < 0 || index >= len(e.population) {
		return fmt.Errorf("organism index out of range: %d", index)
	}
	e.population[index].Fitness = fitness
	return nil
}

// Evolve replaces the population with offspringCount children bred by
// tournament selection, one-point crossover and mutation, then advances the
// generation by one. An empty population is left alone and the generation
// does not move. rng must not be nil.
func (e *Engine) Evolve(rng *rand.Rand, offspringCount int) {
	if len(e.population) == 0 {
		e.log.WithField("layer", e.layer).Debug("evolve skipped: empty population")
		return
	}
	if offspringCount < 0 {
		offspringCount = 0
	}

	next := make([]model.Organism, 0, offspringCount)
	for i := 0; i < offspringCount; i++ {
		parentA := e.population[e.selector.Pick(rng, e.population)]
		parentB := e.population[e.selector.Pick(rng, e.population)]

		child := OnePointCrossover(rng, parentA.Genome, parentB.Genome)
		e.mutator.Mutate(rng, child)

		next = append(next, model.Organism{
			ID:      newOrganismID(rng),
			Genome:  child,
			Fitness: 0,
		})
	}

	e.population = next
	e.generation++

	e.log.WithFields(logrus.Fields{
		"layer":      e.layer,
		"generation": e.generation,
		"offspring":  offspringCount,
	}).Debug("generation evolved")
	if e.observer != nil {
		e.observer.ObserveGeneration(e.layer, e.generation, len(e.population))
	}
}

// Checkpoint stores the current population under checkpointID. The
// generation counter is not touched.
func (e *Engine) Checkpoint(ctx context.Context, checkpointID string) error {
	err := e.store.Store(ctx, checkpointID, e.population)
	if e.observer != nil {
		e.observer.ObserveCheckpoint(e.layer, checkpointID, err)
	}

	entry := e.log.WithFields(logrus.Fields{
		"layer":         e.layer,
		"checkpoint_id": checkpointID,
		"generation":    e.generation,
		"population":    len(e.population),
	})
	if err != nil {
		entry.WithError(err).Warn("checkpoint failed")
		return err
	}
	entry.Info("checkpoint stored")
	return nil
}

// Recover replaces the population with the snapshot stored under
// checkpointID. On any error the current population is left as it was.
//
// The generation counter is not rewound: a recovered run keeps
// counting from where the live engine was, not from where the snapshot was
// taken.
func (e *Engine) Recover(ctx context.Context, checkpointID string) error {
	population, err := e.store.Load(ctx, checkpointID)
	if err == nil && len(population) == 0 {
		err = fmt.Errorf("%w: %s", ErrEmptySnapshot, checkpointID)
	}
	if e.observer != nil {
		e.observer.ObserveRecover(e.layer, checkpointID, err)
	}

	entry := e.log.WithFields(logrus.Fields{
		"layer":         e.layer,
		"checkpoint_id": checkpointID,
		"generation":    e.generation,
	})
	if err != nil {
		entry.WithError(err).Warn("recover failed")
		return err
	}

	e.population = population
	entry.WithField("population", len(population)).Info("population recovered")
	return nil
}

// newOrganismID draws a version 4 UUID from rng so identical seeds yield
// identical ids.
func newOrganismID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return fmt.Sprintf("%016x%016x", rng.Uint64(), rng.Uint64())
	}
	return id.String()
}
