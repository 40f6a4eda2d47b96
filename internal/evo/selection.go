package evo

import (
	"math/rand"

	"phoenix/internal/model"
)

const DefaultTournamentSize = 3

// TournamentSelector samples min(Size, len(population)) candidates uniformly
// with replacement and keeps the fittest. On ties the earliest sampled
// candidate wins.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

// Pick returns the index of the winning organism, or -1 for an empty
// population.
func (s TournamentSelector) Pick(rng *rand.Rand, population []model.Organism) int {
	if len(population) == 0 {
		return -1
	}

	k := s.Size
	if k <= 0 {
		k = DefaultTournamentSize
	}
	if k > len(population) {
		k = len(population)
	}

	best := rng.Intn(len(population))
	for i := 1; i < k; i++ {
		candidate := rng.Intn(len(population))
		if population[candidate].Fitness > population[best].Fitness {
			best = candidate
		}
	}
	return best
}
