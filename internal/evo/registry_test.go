package evo

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"phoenix/internal/model"
)

type constantMutator struct {
	value float64
}

func (m constantMutator) Mutate(_ *rand.Rand, genome model.Genome) {
	for i := range genome {
		genome[i] = m.value
	}
}

func TestResolveMutatorDefaults(t *testing.T) {
	resetMutatorRegistryForTests()

	mutator, err := ResolveMutator("", MutationParams{Rate: 0.2, Sigma: 0.3})
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if got, ok := mutator.(GaussianMutator); !ok || got.Rate != 0.2 || got.Sigma != 0.3 {
		t.Fatalf("unexpected default mutator: %#v", mutator)
	}

	mutator, err = ResolveMutator("none", MutationParams{})
	if err != nil {
		t.Fatalf("resolve none: %v", err)
	}
	if _, ok := mutator.(NoopMutator); !ok {
		t.Fatalf("expected NoopMutator, got %T", mutator)
	}
}

func TestRegisterMutator(t *testing.T) {
	resetMutatorRegistryForTests()
	t.Cleanup(resetMutatorRegistryForTests)

	err := RegisterMutator("constant", func(params MutationParams) Mutator {
		return constantMutator{value: params.Rate}
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMutator("constant", func(MutationParams) Mutator { return NoopMutator{} }); !errors.Is(err, ErrMutatorExists) {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}

	mutator, err := ResolveMutator("constant", MutationParams{Rate: 0.4})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	genome := model.Genome{0.1, 0.2}
	mutator.Mutate(nil, genome)
	if !reflect.DeepEqual(genome, model.Genome{0.4, 0.4}) {
		t.Fatalf("unexpected mutation: %v", genome)
	}

	if names := ListMutators(); !reflect.DeepEqual(names, []string{"constant", "gaussian", "none"}) {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegisterMutatorValidation(t *testing.T) {
	if err := RegisterMutator("", func(MutationParams) Mutator { return NoopMutator{} }); err == nil {
		t.Fatal("expected missing name error")
	}
	if err := RegisterMutator("x", nil); err == nil {
		t.Fatal("expected missing factory error")
	}
	if _, err := ResolveMutator("quantum", MutationParams{}); !errors.Is(err, ErrMutatorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
