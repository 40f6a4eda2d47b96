package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("checkpoint not found")
	ErrVersionMismatch     = errors.New("snapshot version mismatch")
	ErrInvalidCheckpointID = errors.New("invalid checkpoint id")
	ErrNotInitialized      = errors.New("store is not initialized")
	ErrGeneOutOfRange      = errors.New("snapshot gene outside [0,1]")
)

// Operations reported by StorageError.
const (
	OpStore  = "store"
	OpLoad   = "load"
	OpEncode = "encode"
	OpDecode = "decode"
	OpList   = "list"
)

// StorageError reports an I/O, encoding or decoding failure for one
// checkpoint. The cause stays reachable through errors.Is and errors.As.
type StorageError struct {
	Op           string
	CheckpointID string
	Err          error
}

func (e *StorageError) Error() string {
	if e.CheckpointID == "" {
		return fmt.Sprintf("checkpoint %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.CheckpointID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, id string, err error) error {
	return &StorageError{Op: op, CheckpointID: id, Err: err}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
