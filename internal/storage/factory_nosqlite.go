//go:build !sqlite

package storage

import (
	"context"
	"fmt"
)

func newSQLiteStore(_ context.Context, _ string) (CheckpointStore, error) {
	return nil, fmt.Errorf("sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
