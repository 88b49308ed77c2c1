package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
)

// Store is an in-memory implementation of kb.Store for tests and text
// fact files.
type Store struct {
	mu        sync.RWMutex
	order     []string
	arities   map[string]int
	facts     map[string][]kb.Fact
	factIndex map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		arities:   make(map[string]int),
		facts:     make(map[string][]kb.Fact),
		factIndex: make(map[string]struct{}),
	}
}

// Close implements kb.Store.
func (s *Store) Close() error { return nil }

// Declare implements kb.Sink.
func (s *Store) Declare(ctx context.Context, relation string, arity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.declareLocked(relation, arity)
}

func (s *Store) declareLocked(relation string, arity int) error {
	if relation == "" || arity <= 0 {
		return fmt.Errorf("%w: relation %q with arity %d", internalerr.ErrInvalidInput, relation, arity)
	}
	if existing, ok := s.arities[relation]; ok {
		if existing != arity {
			return fmt.Errorf("%w: relation %s has arity %d, got %d", internalerr.ErrInvalidInput, relation, existing, arity)
		}
		return nil
	}
	s.arities[relation] = arity
	s.order = append(s.order, relation)
	return nil
}

// AddFact implements kb.Sink. Duplicate facts are ignored.
func (s *Store) AddFact(ctx context.Context, f kb.Fact) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.declareLocked(f.Relation, len(f.Args)); err != nil {
		return false, err
	}
	key := f.Relation + "\x00" + strings.Join(f.Args, "\x00")
	if _, ok := s.factIndex[key]; ok {
		return false, nil
	}
	s.factIndex[key] = struct{}{}
	s.facts[f.Relation] = append(s.facts[f.Relation], copyFact(f))
	return true, nil
}

// Relations implements kb.Store.
func (s *Store) Relations(ctx context.Context) ([]kb.RelationInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]kb.RelationInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, kb.RelationInfo{
			Name:    name,
			Arity:   s.arities[name],
			Records: len(s.facts[name]),
		})
	}
	return out, nil
}

// Facts implements kb.Store.
func (s *Store) Facts(ctx context.Context, relation string) ([]kb.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.arities[relation]; !ok {
		return nil, fmt.Errorf("%w: relation %s", internalerr.ErrNotFound, relation)
	}
	out := make([]kb.Fact, len(s.facts[relation]))
	for i, f := range s.facts[relation] {
		out[i] = copyFact(f)
	}
	return out, nil
}

func copyFact(f kb.Fact) kb.Fact {
	args := make([]string, len(f.Args))
	copy(args, f.Args)
	return kb.Fact{Relation: f.Relation, Args: args}
}
