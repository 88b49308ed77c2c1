// Package entail scores rule structures by counting the head atoms they
// entail over a knowledge base.
//
// Body solutions are projected onto the head variables that also occur in
// the body. Every distinct projection entails |C|^k head atoms, where C is
// the constant universe and k counts the empty head slots plus the distinct
// head-only variables. The positive entailments are the head relation's
// records that agree with some projection.
package entail

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/eval"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
)

// Projector computes the distinct bindings of vars over the solutions of a
// conjunctive body. An empty vars list yields one empty tuple when the body
// is satisfiable and none otherwise.
type Projector interface {
	Project(body []rule.Predicate, vars []int) ([][]int, error)
}

// Evaluator implements rule.Evaluator over a KB.
type Evaluator struct {
	kb        *kb.KB
	projector Projector
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithProjector replaces the default in-memory join.
func WithProjector(p Projector) Option {
	return func(e *Evaluator) { e.projector = p }
}

// New returns an evaluator over k.
func New(k *kb.KB, opts ...Option) *Evaluator {
	e := &Evaluator{kb: k}
	for _, opt := range opts {
		opt(e)
	}
	if e.projector == nil {
		e.projector = NewJoin(k)
	}
	return e
}

// headShape splits the head slots by how the body constrains them.
type headShape struct {
	// projected lists head variables that occur in the body, in head order.
	projected []int
	// firstPos is the head position of the first occurrence of each variable.
	firstPos map[int]int
	free     int
}

func shape(head rule.Predicate, body []rule.Predicate) headShape {
	inBody := make(map[int]bool)
	for _, p := range body {
		for _, a := range p.Args {
			if a.IsVariable() {
				inBody[a.ID] = true
			}
		}
	}

	s := headShape{firstPos: make(map[int]int)}
	for pos, a := range head.Args {
		switch {
		case a.IsEmpty():
			s.free++
		case a.IsVariable():
			if _, seen := s.firstPos[a.ID]; seen {
				continue
			}
			s.firstPos[a.ID] = pos
			if inBody[a.ID] {
				s.projected = append(s.projected, a.ID)
			} else {
				s.free++
			}
		}
	}
	return s
}

// Evaluate implements rule.Evaluator.
func (e *Evaluator) Evaluate(structure []rule.Predicate) (eval.Eval, error) {
	if len(structure) == 0 {
		return eval.Eval{}, fmt.Errorf("%w: empty structure", internalerr.ErrInvalidInput)
	}
	head := structure[rule.HeadIdx]
	headRel, ok := e.kb.Relation(head.Functor)
	if !ok {
		return eval.Eval{}, fmt.Errorf("%w: relation id %d", internalerr.ErrUnknownSymbol, head.Functor)
	}
	body := structure[rule.HeadIdx+1:]
	for _, p := range body {
		if _, ok := e.kb.Relation(p.Functor); !ok {
			return eval.Eval{}, fmt.Errorf("%w: relation id %d", internalerr.ErrUnknownSymbol, p.Functor)
		}
	}

	s := shape(head, body)
	projections := [][]int{{}}
	if len(body) > 0 {
		var err error
		projections, err = e.projector.Project(body, s.projected)
		if err != nil {
			return eval.Eval{}, fmt.Errorf("project %s: %w", rule.RenderStructure(structure, e.kb.Numeration()), err)
		}
	}

	completions := math.Pow(float64(e.kb.ConstantCount()), float64(s.free))
	all := float64(len(projections)) * completions

	matches := e.matchHeadRecords(head, headRel, s)
	pos := 0.0
	for _, proj := range projections {
		pos += float64(matches[tupleKey(proj)])
	}

	return eval.New(pos, all, rule.StructureSize(structure), headRel.Len()), nil
}

// matchHeadRecords counts, per projection key, the head records that agree
// with the head's constants and variable repetitions.
func (e *Evaluator) matchHeadRecords(head rule.Predicate, rel *kb.Relation, s headShape) map[string]int {
	out := make(map[string]int)
	key := make([]int, len(s.projected))
next:
	for _, rec := range rel.Records() {
		for pos, a := range head.Args {
			switch {
			case a.IsConstant():
				if rec[pos] != a.ID {
					continue next
				}
			case a.IsVariable():
				if rec[pos] != rec[s.firstPos[a.ID]] {
					continue next
				}
			}
		}
		for i, v := range s.projected {
			key[i] = rec[s.firstPos[v]]
		}
		out[tupleKey(key)]++
	}
	return out
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
