// Package rule implements the specialization state machine of a Horn rule:
// structural edits over a head atom and a conjunctive body, the packed
// bound-variable table, canonical fingerprints for deduplication, the
// triviality/fragmentation check and the evaluate-on-success pipeline.
//
// Mutations are not transactional. A mutation that reports anything other
// than Normal leaves the rule modified and the rule must be discarded. Use
// Specialize, which works on a clone, when the caller needs to survive a
// rejection.
package rule

import (
	"fmt"
	"time"

	"github.com/cognicore/horn/pkg/horn/eval"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

const (
	// HeadIdx is the structure index of the head atom.
	HeadIdx      = 0
	firstBodyIdx = HeadIdx + 1
)

// Rule is a Horn rule under construction.
type Rule struct {
	structure []Predicate
	// varCounts[id] is the number of occurrences of bound variable id.
	varCounts   []int
	fingerprint Fingerprint
	size        int
	eval        eval.Eval
	session     *Session
}

// New creates a rule with an empty head and no body. Its fingerprint is
// recorded in the session memory.
func New(headFunctor, arity int, s *Session) *Rule {
	r := &Rule{
		structure: []Predicate{NewPredicate(headFunctor, arity)},
		session:   s,
	}
	r.fingerprint = NewFingerprint(r.structure)
	s.Memory.Add(r.fingerprint)
	return r
}

// FromStructure builds a rule from an explicit structure, e.g. one parsed
// from text. Variable ids are packed in order of first occurrence; a
// variable that occurs only once is a free-variable marker and becomes an
// empty slot. The input is not retained.
func FromStructure(structure []Predicate, s *Session) (*Rule, error) {
	if len(structure) == 0 {
		return nil, fmt.Errorf("%w: rule needs a head", internalerr.ErrInvalidInput)
	}

	occurrences := make(map[int]int)
	for _, p := range structure {
		for _, a := range p.Args {
			if a.IsVariable() {
				occurrences[a.ID]++
			}
		}
	}

	r := &Rule{
		structure: cloneStructure(structure),
		session:   s,
	}
	packed := make(map[int]int)
	for _, p := range r.structure {
		for i, a := range p.Args {
			switch {
			case a.IsVariable() && occurrences[a.ID] < 2:
				p.Args[i] = Empty
			case a.IsVariable():
				id, ok := packed[a.ID]
				if !ok {
					id = len(r.varCounts)
					packed[a.ID] = id
					r.varCounts = append(r.varCounts, 0)
				}
				p.Args[i] = Variable(id)
				r.varCounts[id]++
				r.size++
			case a.IsConstant():
				r.size++
			}
		}
	}
	r.size -= len(r.varCounts)

	r.fingerprint = NewFingerprint(r.structure)
	s.Memory.Add(r.fingerprint)
	return r, nil
}

// Clone deep-copies the structure and variable table. The session, and
// with it the search memory, is shared with the receiver.
func (r *Rule) Clone() *Rule {
	counts := make([]int, len(r.varCounts))
	copy(counts, r.varCounts)
	return &Rule{
		structure:   cloneStructure(r.structure),
		varCounts:   counts,
		fingerprint: r.fingerprint,
		size:        r.size,
		eval:        r.eval,
		session:     r.session,
	}
}

// Len returns the number of atoms including the head.
func (r *Rule) Len() int { return len(r.structure) }

// Size returns the number of equality constraints the rule encodes:
// filled slots minus distinct bound variables.
func (r *Rule) Size() int { return r.size }

// UsedVars returns the number of bound variables.
func (r *Rule) UsedVars() int { return len(r.varCounts) }

// Fingerprint returns the canonical signature of the current structure.
func (r *Rule) Fingerprint() Fingerprint { return r.fingerprint }

// Eval returns the score computed by the last successful mutation.
func (r *Rule) Eval() eval.Eval { return r.eval }

// Session returns the shared session.
func (r *Rule) Session() *Session { return r.session }

// Head returns a copy of the head atom.
func (r *Rule) Head() Predicate { return r.structure[HeadIdx].Clone() }

// Predicate returns a copy of the atom at idx.
func (r *Rule) Predicate(idx int) Predicate { return r.structure[idx].Clone() }

// Structure returns a copy of every atom, head first.
func (r *Rule) Structure() []Predicate { return cloneStructure(r.structure) }

// Equal compares rules by fingerprint.
func (r *Rule) Equal(o *Rule) bool { return r.fingerprint == o.fingerprint }

// VarLocation is one occurrence of a bound variable.
type VarLocation struct {
	Pred int
	Arg  int
}

// VarLocations lists the occurrences of a bound variable.
func (r *Rule) VarLocations(varID int) []VarLocation {
	if varID < 0 || varID >= len(r.varCounts) {
		return nil
	}
	var out []VarLocation
	for pi, p := range r.structure {
		for ai, a := range p.Args {
			if a == Variable(varID) {
				out = append(out, VarLocation{Pred: pi, Arg: ai})
			}
		}
	}
	return out
}

// Evaluate scores the current structure without any mutation, e.g. for the
// initial rule of a search or a rule reconstructed from text.
func (r *Rule) Evaluate() error {
	if r.session.Evaluator == nil {
		return nil
	}
	ev, err := r.session.Evaluator.Evaluate(r.structure)
	if err != nil {
		return err
	}
	r.eval = ev
	return nil
}

// BindExisting fills an empty slot of an existing atom with a bound variable.
func (r *Rule) BindExisting(pred, arg, varID int) (Status, error) {
	if err := r.checkEmpty(pred, arg); err != nil {
		return Invalid, err
	}
	if err := r.checkVar(varID); err != nil {
		return Invalid, err
	}
	return r.run(OpBindExisting, func() {
		r.structure[pred].Args[arg] = Variable(varID)
		r.varCounts[varID]++
		r.size++
	})
}

// BindExistingNewAtom appends an empty atom and binds one of its slots to a
// bound variable.
func (r *Rule) BindExistingNewAtom(functor, arity, arg, varID int) (Status, error) {
	if arg < 0 || arg >= arity {
		return Invalid, fmt.Errorf("%w: argument %d out of arity %d", internalerr.ErrInvalidOperation, arg, arity)
	}
	if err := r.checkVar(varID); err != nil {
		return Invalid, err
	}
	return r.run(OpBindExistingNewAtom, func() {
		p := NewPredicate(functor, arity)
		p.Args[arg] = Variable(varID)
		r.structure = append(r.structure, p)
		r.varCounts[varID]++
		r.size++
	})
}

// BindNewPair binds two empty slots to a fresh variable.
func (r *Rule) BindNewPair(pred1, arg1, pred2, arg2 int) (Status, error) {
	if err := r.checkEmpty(pred1, arg1); err != nil {
		return Invalid, err
	}
	if err := r.checkEmpty(pred2, arg2); err != nil {
		return Invalid, err
	}
	if pred1 == pred2 && arg1 == arg2 {
		return Invalid, fmt.Errorf("%w: cannot pair slot (%d,%d) with itself", internalerr.ErrInvalidOperation, pred1, arg1)
	}
	return r.run(OpBindNewPair, func() {
		v := r.newVar()
		r.structure[pred1].Args[arg1] = v
		r.structure[pred2].Args[arg2] = v
		r.size++
	})
}

// BindNewPairNewAtom appends an empty atom and binds one of its slots and an
// empty slot of an existing atom to a fresh variable.
func (r *Rule) BindNewPairNewAtom(functor, arity, arg1, pred2, arg2 int) (Status, error) {
	if arg1 < 0 || arg1 >= arity {
		return Invalid, fmt.Errorf("%w: argument %d out of arity %d", internalerr.ErrInvalidOperation, arg1, arity)
	}
	if err := r.checkEmpty(pred2, arg2); err != nil {
		return Invalid, err
	}
	return r.run(OpBindNewPairNewAtom, func() {
		v := r.newVar()
		p := NewPredicate(functor, arity)
		p.Args[arg1] = v
		r.structure[pred2].Args[arg2] = v
		r.structure = append(r.structure, p)
		r.size++
	})
}

// BindConstant fills an empty slot with a constant symbol.
func (r *Rule) BindConstant(pred, arg, symbol int) (Status, error) {
	if err := r.checkEmpty(pred, arg); err != nil {
		return Invalid, err
	}
	return r.run(OpBindConstant, func() {
		r.structure[pred].Args[arg] = Constant(symbol)
		r.size++
	})
}

// Unbind clears a filled slot. When the slot held one of the last two
// occurrences of a variable, the other occurrence is cleared too and the
// highest variable id is moved into the freed id. Body atoms left without
// any filled slot are dropped, which shifts the indices of later atoms.
func (r *Rule) Unbind(pred, arg int) (Status, error) {
	if err := r.checkSlot(pred, arg); err != nil {
		return Invalid, err
	}
	if r.structure[pred].Args[arg].IsEmpty() {
		return Invalid, fmt.Errorf("%w: slot (%d,%d) is empty", internalerr.ErrInvalidOperation, pred, arg)
	}
	return r.run(OpUnbind, func() { r.unbind(pred, arg) })
}

func (r *Rule) unbind(pred, arg int) {
	a := r.structure[pred].Args[arg]
	r.structure[pred].Args[arg] = Empty

	if a.IsVariable() {
		if r.varCounts[a.ID] <= 2 {
			r.replaceVar(a.ID, Empty)
			last := len(r.varCounts) - 1
			if a.ID != last {
				r.varCounts[a.ID] = r.varCounts[last]
				r.replaceVar(last, Variable(a.ID))
			}
			r.varCounts = r.varCounts[:last]
		} else {
			r.varCounts[a.ID]--
		}
	}
	r.size--

	kept := r.structure[:firstBodyIdx]
	for _, p := range r.structure[firstBodyIdx:] {
		if !p.IsBlank() {
			kept = append(kept, p)
		}
	}
	r.structure = kept
}

func (r *Rule) replaceVar(id int, with Argument) {
	old := Variable(id)
	for _, p := range r.structure {
		for i, a := range p.Args {
			if a == old {
				p.Args[i] = with
			}
		}
	}
}

func (r *Rule) newVar() Argument {
	v := Variable(len(r.varCounts))
	r.varCounts = append(r.varCounts, 2)
	return v
}

// run executes the mutation pipeline: structural update, dedup, validity,
// then tabu, coverage and scoring.
func (r *Rule) run(kind OpKind, update func()) (Status, error) {
	obs := r.session.Observer
	start := time.Now()
	update()
	r.fingerprint = NewFingerprint(r.structure)
	dedupStart := time.Now()
	obs.StageDone(StageUpdate, dedupStart.Sub(start))

	fresh := r.session.Memory.Add(r.fingerprint)
	validStart := time.Now()
	obs.StageDone(StageDedup, validStart.Sub(dedupStart))
	if !fresh {
		obs.Updated(kind, Duplicated)
		return Duplicated, nil
	}

	invalid := r.isInvalid()
	obs.StageDone(StageValidity, time.Since(validStart))
	if invalid {
		obs.Updated(kind, Invalid)
		return Invalid, nil
	}

	status, err := r.evaluate()
	if err != nil {
		return status, err
	}
	obs.Updated(kind, status)
	return status, nil
}

func (r *Rule) evaluate() (Status, error) {
	s := r.session
	if s.Evaluator == nil {
		return Normal, nil
	}

	tabuStart := time.Now()
	hit := s.Memory.tabuHit(r.structure)
	evalStart := time.Now()
	s.Observer.StageDone(StageTabu, evalStart.Sub(tabuStart))
	if hit {
		return TabuPruned, nil
	}

	ev, err := s.Evaluator.Evaluate(r.structure)
	s.Observer.StageDone(StageEvaluate, time.Since(evalStart))
	if err != nil {
		return Invalid, fmt.Errorf("evaluate %s: %w", r.fingerprint, err)
	}
	if cov, ok := ev.FactCoverage(); ok && cov <= s.MinFactCoverage {
		s.Memory.addTabu(r.fingerprint, r.structure)
		return InsufficientCoverage, nil
	}
	r.eval = ev
	return Normal, nil
}

func (r *Rule) checkSlot(pred, arg int) error {
	if pred < 0 || pred >= len(r.structure) {
		return fmt.Errorf("%w: predicate index %d out of %d", internalerr.ErrInvalidOperation, pred, len(r.structure))
	}
	if arg < 0 || arg >= r.structure[pred].Arity() {
		return fmt.Errorf("%w: argument %d out of arity %d", internalerr.ErrInvalidOperation, arg, r.structure[pred].Arity())
	}
	return nil
}

func (r *Rule) checkEmpty(pred, arg int) error {
	if err := r.checkSlot(pred, arg); err != nil {
		return err
	}
	if !r.structure[pred].Args[arg].IsEmpty() {
		return fmt.Errorf("%w: slot (%d,%d) already filled", internalerr.ErrInvalidOperation, pred, arg)
	}
	return nil
}

func (r *Rule) checkVar(varID int) error {
	if varID < 0 || varID >= len(r.varCounts) {
		return fmt.Errorf("%w: variable %d not bound (have %d)", internalerr.ErrInvalidOperation, varID, len(r.varCounts))
	}
	return nil
}

// StructureSize returns filled slots minus distinct bound variables of an
// arbitrary structure. Evaluators use it to size a rule they are handed.
func StructureSize(structure []Predicate) int {
	filled := 0
	vars := make(map[int]struct{})
	for _, p := range structure {
		for _, a := range p.Args {
			if a.IsEmpty() {
				continue
			}
			filled++
			if a.IsVariable() {
				vars[a.ID] = struct{}{}
			}
		}
	}
	return filled - len(vars)
}

func (r *Rule) String() string {
	return fmt.Sprintf("(%s)%s", r.eval, r.Render(nil))
}
