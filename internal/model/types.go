package model

import "math/rand"

const (
	GeneMin = 0.0
	GeneMax = 1.0
)

// Genome is the heritable state of an organism. Every gene lies in
// [GeneMin, GeneMax].
type Genome []float64

// Organism is a scored individual. Fitness is assigned by the caller; fresh
// offspring carry 0.
type Organism struct {
	ID      string  `json:"id"`
	Genome  Genome  `json:"genome"`
	Fitness float64 `json:"fitness"`
}

// Clone returns a copy that shares no backing storage with g.
func (g Genome) Clone() Genome {
	if g == nil {
		return nil
	}
	return append(Genome(make([]float64, 0, len(g))), g...)
}

// Clone returns a deep copy of the organism.
func (o Organism) Clone() Organism {
	o.Genome = o.Genome.Clone()
	return o
}

// ClonePopulation deep-copies every organism in population.
func ClonePopulation(population []Organism) []Organism {
	if population == nil {
		return nil
	}
	copied := make([]Organism, len(population))
	for i, organism := range population {
		copied[i] = organism.Clone()
	}
	return copied
}

// Clamp01 bounds v to [GeneMin, GeneMax].
func Clamp01(v float64) float64 {
	if v < GeneMin {
		return GeneMin
	}
	if v > GeneMax {
		return GeneMax
	}
	return v
}

// RandomGenome draws length genes uniformly from [0,1).
func RandomGenome(rng *rand.Rand, length int) Genome {
	if length <= 0 {
		return Genome{}
	}
	genome := make(Genome, length)
	for i := range genome {
		genome[i] = rng.Float64()
	}
	return genome
}
