// Package kb holds the numerated knowledge base the rule search runs
// against, the persistence contract for facts and the text fact format.
package kb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Relation is a named set of fixed-arity records over constant ids.
type Relation struct {
	ID    int
	Name  string
	Arity int

	records [][]int
	index   map[string]struct{}
	// byArg[pos][symbol] lists the records holding symbol at pos.
	byArg []map[int][][]int
}

// Records returns the records in insertion order. The slice is shared and
// must not be modified.
func (r *Relation) Records() [][]int { return r.records }

// Len returns the number of records.
func (r *Relation) Len() int { return len(r.records) }

// Matching returns the records holding symbol at position pos.
func (r *Relation) Matching(pos, symbol int) [][]int {
	if pos < 0 || pos >= len(r.byArg) {
		return nil
	}
	return r.byArg[pos][symbol]
}

// Has reports whether tuple is a record of r.
func (r *Relation) Has(tuple []int) bool {
	_, ok := r.index[tupleKey(tuple)]
	return ok
}

// KB is an in-memory numerated knowledge base.
type KB struct {
	name      string
	num       *Numeration
	relations []*Relation
	byID      map[int]*Relation
	constants map[int]struct{}
}

// New returns an empty knowledge base.
func New(name string) *KB {
	return &KB{
		name:      name,
		num:       NewNumeration(),
		byID:      make(map[int]*Relation),
		constants: make(map[int]struct{}),
	}
}

// Name returns the knowledge base name.
func (k *KB) Name() string { return k.name }

// Numeration returns the shared name/id mapping.
func (k *KB) Numeration() *Numeration { return k.num }

// Relations returns every relation in order of declaration.
func (k *KB) Relations() []*Relation { return k.relations }

// Relation looks up a relation by id.
func (k *KB) Relation(id int) (*Relation, bool) {
	r, ok := k.byID[id]
	return r, ok
}

// RelationByName looks up a relation by name.
func (k *KB) RelationByName(name string) (*Relation, bool) {
	id, ok := k.num.ID(name)
	if !ok {
		return nil, false
	}
	return k.Relation(id)
}

// Constants returns the ids of every symbol used as a record argument, sorted.
func (k *KB) Constants() []int { return sortedKeys(k.constants) }

// ConstantCount returns the size of the constant universe.
func (k *KB) ConstantCount() int { return len(k.constants) }

// TotalRecords returns the number of records over all relations.
func (k *KB) TotalRecords() int {
	n := 0
	for _, r := range k.relations {
		n += r.Len()
	}
	return n
}

// Declare registers a relation, possibly without records. Declaring an
// existing relation with the same arity is a no-op.
func (k *KB) Declare(name string, arity int) (*Relation, error) {
	if name == "" || arity <= 0 {
		return nil, fmt.Errorf("%w: relation %q with arity %d", internalerr.ErrInvalidInput, name, arity)
	}
	id := k.num.Numerate(name)
	if r, ok := k.byID[id]; ok {
		if r.Arity != arity {
			return nil, fmt.Errorf("%w: relation %s has arity %d, got %d", internalerr.ErrInvalidInput, name, r.Arity, arity)
		}
		return r, nil
	}
	r := &Relation{
		ID:    id,
		Name:  name,
		Arity: arity,
		index: make(map[string]struct{}),
		byArg: make([]map[int][][]int, arity),
	}
	for i := range r.byArg {
		r.byArg[i] = make(map[int][][]int)
	}
	k.relations = append(k.relations, r)
	k.byID[id] = r
	return r, nil
}

// AddRecord adds a record, declaring the relation if needed. It reports
// whether the record was new.
func (k *KB) AddRecord(relation string, args []string) (bool, error) {
	r, err := k.Declare(relation, len(args))
	if err != nil {
		return false, err
	}
	tuple := make([]int, len(args))
	for i, a := range args {
		if a == "" {
			return false, fmt.Errorf("%w: empty argument %d of %s", internalerr.ErrInvalidInput, i, relation)
		}
		tuple[i] = k.num.Numerate(a)
	}
	key := tupleKey(tuple)
	if _, dup := r.index[key]; dup {
		return false, nil
	}
	r.index[key] = struct{}{}
	r.records = append(r.records, tuple)
	for pos, c := range tuple {
		r.byArg[pos][c] = append(r.byArg[pos][c], tuple)
		k.constants[c] = struct{}{}
	}
	return true, nil
}

func tupleKey(tuple []int) string {
	var b strings.Builder
	for i, c := range tuple {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}
