package storage

import (
	"errors"
	"testing"
)

func TestSanitizeCheckpointID(t *testing.T) {
	cases := map[string]string{
		"gen0":             "gen0",
		"demo_gen-4":       "demo_gen-4",
		"../../etc/passwd": "______etc_passwd",
		"a/b\\c":           "a_b_c",
		"run 1.population": "run_1_population",
		"ümlaut":           "_mlaut",
		"":                 "",
	}
	for in, want := range cases {
		if got := SanitizeCheckpointID(in); got != want {
			t.Fatalf("sanitize %q: want %q got %q", in, want, got)
		}
	}
}

func TestCheckpointKeyRejectsEmpty(t *testing.T) {
	_, err := checkpointKey(OpStore, "")
	if !errors.Is(err, ErrInvalidCheckpointID) {
		t.Fatalf("expected invalid checkpoint id, got %v", err)
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != OpStore {
		t.Fatalf("expected store StorageError, got %v", err)
	}
}
