package evo

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"phoenix/internal/model"
)

func TestGaussianMutatorKeepsGenesInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, sigma := range []float64{0.01, 0.12, 1, 25} {
		mutator := GaussianMutator{Rate: 1, Sigma: sigma}
		for round := 0; round < 50; round++ {
			genome := model.RandomGenome(rng, 32)
			mutator.Mutate(rng, genome)
			for i, gene := range genome {
				if gene < model.GeneMin || gene > model.GeneMax {
					t.Fatalf("sigma=%f gene %d out of bounds: %f", sigma, i, gene)
				}
			}
		}
	}
}

func TestGaussianMutatorZeroRateLeavesGenomeUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	genome := model.RandomGenome(rng, 64)
	before := genome.Clone()

	GaussianMutator{Rate: 0, Sigma: 0.5}.Mutate(rng, genome)

	if !reflect.DeepEqual(genome, before) {
		t.Fatalf("expected untouched genome\nbefore=%v\nafter=%v", before, genome)
	}
}

func TestGaussianMutatorFullRatePerturbs(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	genome := model.Genome{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

	GaussianMutator{Rate: 1, Sigma: 0.1}.Mutate(rng, genome)

	changed := 0
	for _, gene := range genome {
		if gene != 0.5 {
			changed++
		}
	}
	if changed == 0 {
		t.Fatalf("expected perturbed genes, got %v", genome)
	}
}

func TestGaussianMutatorInvalidSigmaFallsBack(t *testing.T) {
	for _, sigma := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := model.Genome{0.5, 0.4, 0.6, 0.5}
		want := got.Clone()

		GaussianMutator{Rate: 1, Sigma: sigma}.Mutate(rand.New(rand.NewSource(9)), got)
		GaussianMutator{Rate: 1, Sigma: FallbackSigma}.Mutate(rand.New(rand.NewSource(9)), want)

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("sigma=%v: expected fallback sigma behaviour\ngot=%v\nwant=%v", sigma, got, want)
		}
	}
}

func TestGaussianMutatorEmptyGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	before := rng.Int63()

	rng = rand.New(rand.NewSource(1))
	GaussianMutator{Rate: 1, Sigma: 1}.Mutate(rng, model.Genome{})
	GaussianMutator{Rate: 1, Sigma: 1}.Mutate(rng, nil)

	if rng.Int63() != before {
		t.Fatal("expected empty genome mutation to consume no randomness")
	}
}

func TestNewGaussianMutatorDefaults(t *testing.T) {
	m := NewGaussianMutator()
	if m.Rate != DefaultMutationRate || m.Sigma != DefaultMutationSigma {
		t.Fatalf("unexpected defaults: %+v", m)
	}
}

func TestNoopMutator(t *testing.T) {
	genome := model.Genome{0.1, 0.9}
	NoopMutator{}.Mutate(rand.New(rand.NewSource(1)), genome)
	if !reflect.DeepEqual(genome, model.Genome{0.1, 0.9}) {
		t.Fatalf("expected untouched genome, got %v", genome)
	}
}
