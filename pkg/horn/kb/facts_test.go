package kb_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/kb/memstore"
)

const familyFacts = `
# family
parent/2
father(dad, son)
mother(mom, son).
gender(son, male)
father(dad, son)
`

func TestParseFacts(t *testing.T) {
	var decls []string
	var facts []kb.Fact
	err := kb.ParseFacts(strings.NewReader(familyFacts),
		func(name string, arity int) error {
			decls = append(decls, name)
			if arity != 2 {
				t.Errorf("arity of %s = %d", name, arity)
			}
			return nil
		},
		func(f kb.Fact) error {
			facts = append(facts, f)
			return nil
		})
	if err != nil {
		t.Fatalf("ParseFacts: %v", err)
	}

	if len(decls) != 1 || decls[0] != "parent" {
		t.Errorf("decls = %v", decls)
	}
	if len(facts) != 4 {
		t.Fatalf("expected 4 facts, got %d", len(facts))
	}
	if got := facts[1].String(); got != "mother(mom, son)" {
		t.Errorf("facts[1] = %s", got)
	}
}

func TestParseFactsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"missing paren", "father dad son", "line 1"},
		{"unclosed", "# ok\nfather(dad, son", "line 2"},
		{"empty argument", "father(dad, )", "line 1"},
		{"no relation", "(dad, son)", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := kb.ParseFacts(strings.NewReader(tt.input),
				func(string, int) error { return nil },
				func(kb.Fact) error { return nil })
			if !errors.Is(err, internalerr.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q should mention %s", err, tt.line)
			}
		})
	}
}

func TestImportAndLoad(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	added, err := kb.ImportFacts(ctx, strings.NewReader(familyFacts), st)
	if err != nil {
		t.Fatalf("ImportFacts: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}

	k, err := kb.Load(ctx, st, "family")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rels := k.Relations()
	if len(rels) != 4 {
		t.Fatalf("expected 4 relations, got %d", len(rels))
	}
	if rels[0].Name != "parent" || rels[0].Len() != 0 {
		t.Errorf("first relation should be the empty parent, got %s/%d", rels[0].Name, rels[0].Len())
	}
	if k.Name() != "family" {
		t.Errorf("Name = %q", k.Name())
	}
}
