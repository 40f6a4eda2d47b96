package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"phoenix/internal/model"
)

const snapshotFileSuffix = ".population.json"

// FileStore keeps one JSON snapshot file per checkpoint under Root.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Root() string {
	return s.root
}

// Path returns the file a checkpoint id maps to.
func (s *FileStore) Path(checkpointID string) string {
	return filepath.Join(s.root, SanitizeCheckpointID(checkpointID)+snapshotFileSuffix)
}

func (s *FileStore) Store(_ context.Context, checkpointID string, population []model.Organism) error {
	key, err := checkpointKey(OpStore, checkpointID)
	if err != nil {
		return err
	}
	payload, err := EncodeSnapshot(population)
	if err != nil {
		return storageErr(OpEncode, checkpointID, err)
	}
	payload = append(payload, '\n')

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return storageErr(OpStore, checkpointID, err)
	}
	if err := writeFileAtomic(filepath.Join(s.root, key+snapshotFileSuffix), payload); err != nil {
		return storageErr(OpStore, checkpointID, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, checkpointID string) ([]model.Organism, error) {
	key, err := checkpointKey(OpLoad, checkpointID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, key+snapshotFileSuffix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(checkpointID)
		}
		return nil, storageErr(OpLoad, checkpointID, err)
	}
	population, err := DecodeSnapshot(data)
	if err != nil {
		return nil, storageErr(OpDecode, checkpointID, err)
	}
	return population, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, storageErr(OpList, "", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotFileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotFileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// writeFileAtomic writes into a temp file in the target directory and renames
// it over path, so readers never observe a half-written snapshot.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
