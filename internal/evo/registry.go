package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrMutatorExists   = errors.New("mutator already registered")
	ErrMutatorNotFound = errors.New("mutator not found")
)

// MutationParams carries the tunables a named mutator may use.
type MutationParams struct {
	Rate  float64
	Sigma float64
}

// MutatorFactory builds a Mutator from params.
type MutatorFactory func(params MutationParams) Mutator

var mutatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]MutatorFactory
}{
	m: defaultMutators(),
}

func defaultMutators() map[string]MutatorFactory {
	return map[string]MutatorFactory{
		GaussianMutator{}.Name(): func(params MutationParams) Mutator {
			return GaussianMutator{Rate: params.Rate, Sigma: params.Sigma}
		},
		NoopMutator{}.Name(): func(MutationParams) Mutator {
			return NoopMutator{}
		},
	}
}

// RegisterMutator makes a mutator selectable by name.
func RegisterMutator(name string, factory MutatorFactory) error {
	if name == "" {
		return errors.New("mutator name is required")
	}
	if factory == nil {
		return errors.New("mutator factory is required")
	}

	mutatorRegistry.mu.Lock()
	defer mutatorRegistry.mu.Unlock()

	if _, exists := mutatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrMutatorExists, name)
	}
	mutatorRegistry.m[name] = factory
	return nil
}

// ResolveMutator builds the mutator registered under name. An empty name
// resolves to the gaussian mutator.
func ResolveMutator(name string, params MutationParams) (Mutator, error) {
	if name == "" {
		name = GaussianMutator{}.Name()
	}

	mutatorRegistry.mu.RLock()
	factory, ok := mutatorRegistry.m[name]
	mutatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMutatorNotFound, name)
	}
	return factory(params), nil
}

func ListMutators() []string {
	mutatorRegistry.mu.RLock()
	defer mutatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(mutatorRegistry.m))
	for name := range mutatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetMutatorRegistryForTests() {
	mutatorRegistry.mu.Lock()
	defer mutatorRegistry.mu.Unlock()
	mutatorRegistry.m = defaultMutators()
}
