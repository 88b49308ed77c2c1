package kb

import (
	"errors"
	"testing"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

func TestNumeration(t *testing.T) {
	n := NewNumeration()
	a := n.Numerate("alice")
	b := n.Numerate("bob")
	if a != 1 || b != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a, b)
	}
	if again := n.Numerate("alice"); again != a {
		t.Errorf("re-numerating alice gave %d, want %d", again, a)
	}
	if n.Name(b) != "bob" {
		t.Errorf("Name(%d) = %q", b, n.Name(b))
	}
	if n.Name(0) != "" || n.Name(99) != "" {
		t.Error("unassigned ids must have no name")
	}
	if _, ok := n.ID("carol"); ok {
		t.Error("carol was never numerated")
	}
	if n.Len() != 2 {
		t.Errorf("Len = %d, want 2", n.Len())
	}
}

func TestKBAddRecord(t *testing.T) {
	k := New("family")

	added, err := k.AddRecord("father", []string{"dad", "son"})
	if err != nil || !added {
		t.Fatalf("AddRecord: added=%v err=%v", added, err)
	}
	added, err = k.AddRecord("father", []string{"dad", "son"})
	if err != nil || added {
		t.Fatalf("duplicate AddRecord: added=%v err=%v", added, err)
	}
	if _, err := k.AddRecord("mother", []string{"mom", "son"}); err != nil {
		t.Fatal(err)
	}

	father, ok := k.RelationByName("father")
	if !ok {
		t.Fatal("father not found")
	}
	if father.Len() != 1 || father.Arity != 2 {
		t.Errorf("father: len=%d arity=%d", father.Len(), father.Arity)
	}

	num := k.Numeration()
	dad, _ := num.ID("dad")
	son, _ := num.ID("son")
	if !father.Has([]int{dad, son}) {
		t.Error("father(dad, son) should be a record")
	}
	if father.Has([]int{son, dad}) {
		t.Error("father(son, dad) is not a record")
	}

	if k.ConstantCount() != 3 {
		t.Errorf("constants = %v, want dad, son, mom", k.Constants())
	}
	if k.TotalRecords() != 2 {
		t.Errorf("TotalRecords = %d, want 2", k.TotalRecords())
	}
}

func TestKBArityConflict(t *testing.T) {
	k := New("test")
	if _, err := k.Declare("parent", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := k.Declare("parent", 2); err != nil {
		t.Fatalf("redeclaring with the same arity: %v", err)
	}
	_, err := k.AddRecord("parent", []string{"a"})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	rels := k.Relations()
	if len(rels) != 1 || rels[0].Len() != 0 {
		t.Fatalf("expected one empty relation, got %d", len(rels))
	}
}

func TestRelationMatching(t *testing.T) {
	k := New("test")
	for _, args := range [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}} {
		if _, err := k.AddRecord("edge", args); err != nil {
			t.Fatal(err)
		}
	}
	edge, _ := k.RelationByName("edge")
	a, _ := k.Numeration().ID("a")
	c, _ := k.Numeration().ID("c")

	if got := len(edge.Matching(0, a)); got != 2 {
		t.Errorf("edge(a, _) matched %d records, want 2", got)
	}
	if got := len(edge.Matching(1, c)); got != 2 {
		t.Errorf("edge(_, c) matched %d records, want 2", got)
	}
	if got := edge.Matching(2, a); got != nil {
		t.Errorf("out of range position matched %v", got)
	}
}
