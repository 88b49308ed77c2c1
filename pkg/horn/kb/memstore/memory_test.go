package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
)

func TestAddFactDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 2; i++ {
		added, err := s.AddFact(ctx, kb.Fact{Relation: "father", Args: []string{"dad", "son"}})
		if err != nil {
			t.Fatal(err)
		}
		if added != (i == 0) {
			t.Errorf("attempt %d: added = %v", i, added)
		}
	}

	rels, _ := s.Relations(ctx)
	if len(rels) != 1 || rels[0].Records != 1 {
		t.Fatalf("unexpected relations %+v", rels)
	}
}

func TestArityMismatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Declare(ctx, "parent", 2); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddFact(ctx, kb.Fact{Relation: "parent", Args: []string{"a", "b", "c"}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFactsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.AddFact(ctx, kb.Fact{Relation: "r", Args: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	facts, _ := s.Facts(ctx, "r")
	facts[0].Args[0] = "mutated"

	again, _ := s.Facts(ctx, "r")
	if again[0].Args[0] != "a" {
		t.Errorf("store was mutated through returned fact: %v", again[0])
	}

	if _, err := s.Facts(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
