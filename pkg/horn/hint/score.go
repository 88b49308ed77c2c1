package hint

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
	"github.com/cognicore/horn/pkg/horn/template"
)

// Structure resolves rule text such as parent(X,Y):-father(X,Y) against the
// KB numeration. Variables are numbered by first occurrence.
func Structure(k *kb.KB, text string) ([]rule.Predicate, error) {
	atoms, err := template.ParseRule(text)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]int)
	structure := make([]rule.Predicate, len(atoms))
	for i, a := range atoms {
		rel, ok := k.RelationByName(a.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: relation %s", internalerr.ErrUnknownSymbol, a.Symbol)
		}
		if rel.Arity != len(a.Args) {
			return nil, fmt.Errorf("%w: %s has arity %d, got %d", internalerr.ErrInvalidInput, a.Symbol, rel.Arity, len(a.Args))
		}
		p := rule.NewPredicate(rel.ID, rel.Arity)
		for j, term := range a.Args {
			if term.Var {
				id, seen := vars[term.Name]
				if !seen {
					id = len(vars)
					vars[term.Name] = id
				}
				p.Args[j] = rule.Variable(id)
				continue
			}
			sym, ok := k.Numeration().ID(term.Name)
			if !ok {
				return nil, fmt.Errorf("%w: constant %s", internalerr.ErrUnknownSymbol, term.Name)
			}
			p.Args[j] = rule.Constant(sym)
		}
		structure[i] = p
	}
	return structure, nil
}

// Score evaluates a single rule given as text. The result is not filtered
// by any threshold.
func Score(k *kb.KB, ev rule.Evaluator, text string) (Candidate, error) {
	structure, err := Structure(k, text)
	if err != nil {
		return Candidate{}, err
	}
	r, err := rule.FromStructure(structure, rule.NewSession(ev, 0, nil))
	if err != nil {
		return Candidate{}, err
	}
	if err := r.Evaluate(); err != nil {
		return Candidate{}, err
	}
	head, _ := k.Relation(structure[rule.HeadIdx].Functor)
	return newCandidate(k, r, head, nil), nil
}
