package storage

import (
	"encoding/json"
	"fmt"

	"phoenix/internal/model"
)

const CurrentSnapshotVersion = 1

// snapshotEnvelope is the on-disk shape of every checkpoint, whatever the
// backend. Version is checked on decode; there is no implicit migration.
type snapshotEnvelope struct {
	Version    int              `json:"version"`
	Population []model.Organism `json:"population"`
}

func EncodeSnapshot(population []model.Organism) ([]byte, error) {
	if population == nil {
		population = []model.Organism{}
	}
	return json.MarshalIndent(snapshotEnvelope{
		Version:    CurrentSnapshotVersion,
		Population: population,
	}, "", "  ")
}

// DecodeSnapshot parses a snapshot envelope. Unknown versions and genes
// outside [GeneMin, GeneMax] are rejected.
func DecodeSnapshot(data []byte) ([]model.Organism, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if err := checkVersion(envelope.Version); err != nil {
		return nil, err
	}
	if err := checkGenes(envelope.Population); err != nil {
		return nil, err
	}
	if envelope.Population == nil {
		return []model.Organism{}, nil
	}
	return envelope.Population, nil
}

func checkVersion(version int) error {
	if version != CurrentSnapshotVersion {
		return fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, version, CurrentSnapshotVersion)
	}
	return nil
}

func checkGenes(population []model.Organism) error {
	for _, organism := range population {
		for i, gene := range organism.Genome {
			if !(gene >= model.GeneMin && gene <= model.GeneMax) {
				return fmt.Errorf("%w: organism %s gene %d = %g", ErrGeneOutOfRange, organism.ID, i, gene)
			}
		}
	}
	return nil
}
