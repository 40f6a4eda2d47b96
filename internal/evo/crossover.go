package evo

import (
	"math/rand"

	"phoenix/internal/model"
)

// OnePointCrossover joins a's genes before a random split point with b's
// genes from the split point on. The child is as long as the shorter parent.
// The split lies in [1, n-1] for n >= 2; a single-gene child inherits a's
// gene.
func OnePointCrossover(rng *rand.Rand, a, b model.Genome) model.Genome {
	n := min(len(a), len(b))
	if n == 0 {
		return model.Genome{}
	}

	split := crossoverPoint(rng, n)
	child := make(model.Genome, 0, n)
	child = append(child, a[:split]...)
	child = append(child, b[split:n]...)
	return child
}

func crossoverPoint(rng *rand.Rand, n int) int {
	if n < 2 {
		return n
	}
	return 1 + rng.Intn(n-1)
}
