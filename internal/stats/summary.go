package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"phoenix/internal/model"
)

// Summary describes the fitness spread of one population.
type Summary struct {
	Size         int     `json:"size"`
	GenomeLength int     `json:"genome_length"`
	Best         float64 `json:"best"`
	Mean         float64 `json:"mean"`
	Worst        float64 `json:"worst"`
}

// GenerationStats is a Summary taken after a given generation.
type GenerationStats struct {
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
	Worst      float64 `json:"worst"`
}

type TopOrganism struct {
	Rank    int          `json:"rank"`
	ID      string       `json:"id"`
	Fitness float64      `json:"fitness"`
	Genome  model.Genome `json:"genome"`
}

// Summarize reports size, longest genome and best/mean/worst fitness. An
// empty population yields a zero Summary.
func Summarize(population []model.Organism) Summary {
	if len(population) == 0 {
		return Summary{}
	}

	fitness := make([]float64, len(population))
	genomeLength := 0
	for i, organism := range population {
		fitness[i] = organism.Fitness
		if len(organism.Genome) > genomeLength {
			genomeLength = len(organism.Genome)
		}
	}

	return Summary{
		Size:         len(population),
		GenomeLength: genomeLength,
		Best:         floats.Max(fitness),
		Mean:         stat.Mean(fitness, nil),
		Worst:        floats.Min(fitness),
	}
}

func (s Summary) AtGeneration(generation int) GenerationStats {
	return GenerationStats{
		Generation: generation,
		Best:       s.Best,
		Mean:       s.Mean,
		Worst:      s.Worst,
	}
}

// Leaderboard returns the n fittest organisms, best first. Ties keep
// population order.
func Leaderboard(population []model.Organism, n int) []TopOrganism {
	if n <= 0 || len(population) == 0 {
		return []TopOrganism{}
	}

	ranked := model.ClonePopulation(population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	if n > len(ranked) {
		n = len(ranked)
	}

	top := make([]TopOrganism, 0, n)
	for i := 0; i < n; i++ {
		top = append(top, TopOrganism{
			Rank:    i + 1,
			ID:      ranked[i].ID,
			Fitness: ranked[i].Fitness,
			Genome:  ranked[i].Genome,
		})
	}
	return top
}

// BestSeries extracts the best fitness of every entry in history.
func BestSeries(history []GenerationStats) []float64 {
	series := make([]float64, len(history))
	for i, entry := range history {
		series[i] = entry.Best
	}
	return series
}
