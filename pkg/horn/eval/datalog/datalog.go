// Package datalog computes body projections with the Mangle Datalog engine.
// It is an alternative to the in-memory join of package entail and yields
// the same projections.
package datalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
)

const projPredicate = "horn_proj"

// Projector implements entail.Projector. Each call compiles the body into
// a one-rule program, seeds a fresh fact store with the referenced
// relations and evaluates it to fixpoint.
type Projector struct {
	kb *kb.KB
}

// New returns a projector over k.
func New(k *kb.KB) *Projector {
	return &Projector{kb: k}
}

// Program renders the Mangle source computing the projection of body onto
// vars. Relations are named r<id>, constants are numbers.
func Program(body []rule.Predicate, vars []int, arities map[int]int) string {
	var b strings.Builder

	functors := make([]int, 0, len(arities))
	for f := range arities {
		functors = append(functors, f)
	}
	sort.Ints(functors)
	for _, f := range functors {
		fmt.Fprintf(&b, "Decl %s(", relName(f))
		for i := 0; i < arities[f]; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "A%d", i)
		}
		b.WriteString(").\n")
	}

	b.WriteString(projPredicate)
	b.WriteByte('(')
	if len(vars) == 0 {
		b.WriteString("0")
	}
	for i, v := range vars {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(varName(v))
	}
	b.WriteString(") :- ")
	for i, p := range body {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(relName(p.Functor))
		b.WriteByte('(')
		for j, a := range p.Args {
			if j > 0 {
				b.WriteString(", ")
			}
			switch {
			case a.IsVariable():
				b.WriteString(varName(a.ID))
			case a.IsConstant():
				b.WriteString(strconv.Itoa(a.ID))
			default:
				b.WriteByte('_')
			}
		}
		b.WriteByte(')')
	}
	b.WriteString(".\n")
	return b.String()
}

// Project implements entail.Projector.
func (p *Projector) Project(body []rule.Predicate, vars []int) ([][]int, error) {
	arities := make(map[int]int)
	for _, atom := range body {
		arities[atom.Functor] = atom.Arity()
	}

	src := Program(body, vars, arities)
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse projection program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze projection program: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	for functor := range arities {
		rel, ok := p.kb.Relation(functor)
		if !ok {
			return nil, fmt.Errorf("%w: relation id %d", internalerr.ErrUnknownSymbol, functor)
		}
		name := relName(functor)
		for _, rec := range rel.Records() {
			args := make([]ast.BaseTerm, len(rec))
			for i, c := range rec {
				args[i] = ast.Number(int64(c))
			}
			store.Add(ast.NewAtom(name, args...))
		}
	}

	if _, err := mengine.EvalProgramWithStats(programInfo, store); err != nil {
		return nil, fmt.Errorf("evaluate projection program: %w", err)
	}

	arity := len(vars)
	if arity == 0 {
		arity = 1
	}
	var out [][]int
	query := ast.NewQuery(ast.PredicateSym{Symbol: projPredicate, Arity: arity})
	err = store.GetFacts(query, func(atom ast.Atom) error {
		if len(vars) == 0 {
			out = append(out, []int{})
			return nil
		}
		tuple := make([]int, len(atom.Args))
		for i, arg := range atom.Args {
			c, ok := arg.(ast.Constant)
			if !ok || c.Type != ast.NumberType {
				return fmt.Errorf("unexpected projection value %v", arg)
			}
			tuple[i] = int(c.NumValue)
		}
		out = append(out, tuple)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func relName(functor int) string { return "r" + strconv.Itoa(functor) }

func varName(id int) string { return "X" + strconv.Itoa(id) }
