package kb

import (
	"context"
	"fmt"
)

// Fact is a record in textual form.
type Fact struct {
	Relation string
	Args     []string
}

func (f Fact) String() string {
	return fmt.Sprintf("%s(%s)", f.Relation, joinArgs(f.Args))
}

// RelationInfo summarizes a stored relation.
type RelationInfo struct {
	Name    string
	Arity   int
	Records int
}

// Sink receives relation declarations and facts.
type Sink interface {
	Declare(ctx context.Context, relation string, arity int) error
	AddFact(ctx context.Context, f Fact) (bool, error)
}

// Store persists facts between runs.
type Store interface {
	Sink
	Close() error

	// Relations lists relations in declaration order.
	Relations(ctx context.Context) ([]RelationInfo, error)
	// Facts lists the facts of one relation in insertion order.
	Facts(ctx context.Context, relation string) ([]Fact, error)
}

// Load numerates the content of a store into a KB.
func Load(ctx context.Context, st Store, name string) (*KB, error) {
	rels, err := st.Relations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	k := New(name)
	for _, info := range rels {
		if _, err := k.Declare(info.Name, info.Arity); err != nil {
			return nil, err
		}
	}
	for _, info := range rels {
		facts, err := st.Facts(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", info.Name, err)
		}
		for _, f := range facts {
			if _, err := k.AddRecord(f.Relation, f.Args); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}
	return k, nil
}
