package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID          string  `json:"run_id"`
	Layer          string  `json:"layer"`
	PopulationSize int     `json:"population_size"`
	GenomeLength   int     `json:"genome_length"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	Mutator        string  `json:"mutator"`
	MutationRate   float64 `json:"mutation_rate"`
	MutationSigma  float64 `json:"mutation_sigma"`
	StoreKind      string  `json:"store_kind"`
}

type RunArtifacts struct {
	Config           RunConfig         `json:"config"`
	History          []GenerationStats `json:"history"`
	FinalBestFitness float64           `json:"final_best_fitness"`
	TopOrganisms     []TopOrganism     `json:"top_organisms"`
	Checkpoints      []string          `json:"checkpoints"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Layer            string  `json:"layer"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes the run's config, history and leaderboard under
// baseDir/<run id> and returns that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{
		"history":            nonNilHistory(artifacts.History),
		"best_by_generation": BestSeries(artifacts.History),
		"final_best_fitness": artifacts.FinalBestFitness,
		"checkpoints":        nonNilStrings(artifacts.Checkpoints),
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "top_organisms.json"), nonNilTop(artifacts.TopOrganisms)); err != nil {
		return "", err
	}
	if err := WriteFitnessHistoryCSV(runDir, artifacts.History); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func WriteFitnessHistoryCSV(runDir string, history []GenerationStats) error {
	file, err := os.Create(filepath.Join(runDir, "fitness_history.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best", "mean", "worst"}); err != nil {
		return err
	}
	for _, entry := range history {
		if err := writer.Write([]string{
			strconv.Itoa(entry.Generation),
			strconv.FormatFloat(entry.Best, 'f', -1, 64),
			strconv.FormatFloat(entry.Mean, 'f', -1, 64),
			strconv.FormatFloat(entry.Worst, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFitnessHistory reads fitness_history.csv back. The bool reports
// whether the file exists.
func ReadFitnessHistory(baseDir, runID string) ([]GenerationStats, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, "fitness_history.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []GenerationStats{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 4 {
		return nil, false, fmt.Errorf("fitness history header must have 4 columns")
	}

	history := make([]GenerationStats, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}

		var entry GenerationStats
		if entry.Generation, err = strconv.Atoi(record[0]); err != nil {
			return nil, false, err
		}
		if entry.Best, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, false, err
		}
		if entry.Mean, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, false, err
		}
		if entry.Worst, err = strconv.ParseFloat(record[3], 64); err != nil {
			return nil, false, err
		}
		history = append(history, entry)
	}
	return history, true, nil
}

// AppendRunIndex adds entry to baseDir/run_index.json, replacing any entry
// with the same run id.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// later appends win ties
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	out := make([]RunIndexEntry, len(indexed))
	for i := range indexed {
		out[i] = indexed[i].entry
	}
	return out, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func nonNilHistory(history []GenerationStats) []GenerationStats {
	if history == nil {
		return []GenerationStats{}
	}
	return history
}

func nonNilTop(top []TopOrganism) []TopOrganism {
	if top == nil {
		return []TopOrganism{}
	}
	return top
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
