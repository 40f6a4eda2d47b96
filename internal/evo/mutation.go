package evo

import (
	"math"
	"math/rand"

	"phoenix/internal/model"
)

const (
	DefaultMutationRate  = 0.08
	DefaultMutationSigma = 0.12
	// FallbackSigma replaces a non-positive or non-finite sigma.
	FallbackSigma = 0.05
)

// Mutator perturbs a genome in place. Implementations must leave every gene
// inside [model.GeneMin, model.GeneMax] and draw randomness only from rng.
type Mutator interface {
	Mutate(rng *rand.Rand, genome model.Genome)
}

// GaussianMutator perturbs each gene independently: with probability Rate the
// gene receives zero-mean normal noise of spread Sigma and is then clamped.
type GaussianMutator struct {
	Rate  float64
	Sigma float64
}

func NewGaussianMutator() GaussianMutator {
	return GaussianMutator{Rate: DefaultMutationRate, Sigma: DefaultMutationSigma}
}

func (GaussianMutator) Name() string {
	return "gaussian"
}

func (m GaussianMutator) Mutate(rng *rand.Rand, genome model.Genome) {
	if len(genome) == 0 {
		return
	}
	sigma := m.effectiveSigma()
	for i := range genome {
		if rng.Float64() >= m.Rate {
			continue
		}
		genome[i] = model.Clamp01(genome[i] + rng.NormFloat64()*sigma)
	}
}

func (m GaussianMutator) effectiveSigma() float64 {
	if m.Sigma > 0 && !math.IsInf(m.Sigma, 0) && !math.IsNaN(m.Sigma) {
		return m.Sigma
	}
	return FallbackSigma
}

// NoopMutator leaves genomes untouched.
type NoopMutator struct{}

func (NoopMutator) Name() string {
	return "none"
}

func (NoopMutator) Mutate(*rand.Rand, model.Genome) {}
