package hint

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/eval"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
	"github.com/cognicore/horn/pkg/horn/template"
)

const unresolved = -1

// search is the grounding state of one template under one head relation.
// resolved and counters are shared by every branch and restored in place
// on the way back up.
type search struct {
	h    *Hinter
	t    *template.Template
	head *kb.Relation
	sess *rule.Session

	resolved []int
	// counters[g][relation] counts the slots of group g resolved to relation.
	counters []map[int]int
	// symbols holds the resolved constant of each OpBindConstant.
	symbols []int

	found  []Candidate
	capped bool
}

func (h *Hinter) newSearch(t *template.Template, head *kb.Relation, sess *rule.Session) (*search, error) {
	s := &search{
		h:        h,
		t:        t,
		head:     head,
		sess:     sess,
		resolved: make([]int, t.Slots()),
		counters: make([]map[int]int, len(t.Restrictions)),
		symbols:  make([]int, len(t.Ops)),
	}
	for i := range s.resolved {
		s.resolved[i] = unresolved
	}
	for g := range s.counters {
		s.counters[g] = make(map[int]int)
	}
	for i, op := range t.Ops {
		if op.Kind != rule.OpBindConstant {
			continue
		}
		id, ok := h.kb.Numeration().ID(op.Const)
		if !ok {
			return nil, fmt.Errorf("%w: constant %s in %s", internalerr.ErrUnknownSymbol, op.Const, t.Text)
		}
		s.symbols[i] = id
	}
	// the head slot is fixed for the whole search and counts toward its groups
	s.resolve(0, head.ID)
	return s, nil
}

// resolve binds slot to relation and bumps the counters of its groups. The
// returned func undoes both.
func (s *search) resolve(slot, relation int) (release func()) {
	s.resolved[slot] = relation
	for _, g := range s.t.Groups(slot) {
		s.counters[g][relation]++
	}
	return func() {
		s.resolved[slot] = unresolved
		for _, g := range s.t.Groups(slot) {
			s.counters[g][relation]--
		}
	}
}

// violated reports whether every slot of some group containing slot now
// resolves to relation.
func (s *search) violated(slot, relation int) bool {
	for _, g := range s.t.Groups(slot) {
		if s.counters[g][relation] == len(s.t.Restrictions[g]) {
			return true
		}
	}
	return false
}

func (s *search) specialize(r *rule.Rule, idx int) error {
	if s.capped {
		return nil
	}
	if limit := s.h.opts.MaxFingerprints; limit > 0 && s.sess.Memory.Len() >= limit {
		s.capped = true
		return nil
	}
	if idx == len(s.t.Ops) {
		s.collect(r)
		return nil
	}

	op := s.t.Ops[idx]
	if op.Slot == template.NoSlot || s.resolved[op.Slot] != unresolved {
		functor, arity := 0, 0
		if op.Slot != template.NoSlot {
			functor, arity = s.resolved[op.Slot], s.t.Arities[op.Slot]
		}
		concrete := op.Operation(functor, arity)
		concrete.Symbol = s.symbols[idx]
		return s.apply(r, concrete, idx)
	}

	for _, rel := range s.h.kb.Relations() {
		if rel.Arity != s.t.Arities[op.Slot] {
			continue
		}
		if err := s.branch(r, idx, op, rel); err != nil {
			return err
		}
	}
	return nil
}

// branch tries one concrete relation for the slot introduced by op.
func (s *search) branch(r *rule.Rule, idx int, op template.Op, rel *kb.Relation) error {
	release := s.resolve(op.Slot, rel.ID)
	defer release()

	if s.violated(op.Slot, rel.ID) {
		return nil
	}
	return s.apply(r, op.Operation(rel.ID, rel.Arity), idx)
}

func (s *search) apply(r *rule.Rule, op rule.Operation, idx int) error {
	next, status, err := r.Specialize(op)
	if err != nil {
		return err
	}
	if status != rule.Normal {
		return nil
	}
	return s.specialize(next, idx+1)
}

func (s *search) collect(r *rule.Rule) {
	if r.Eval().Value(eval.CompressionRatio) < s.h.opts.MinCompressionRatio {
		return
	}
	s.found = append(s.found, newCandidate(s.h.kb, r, s.head, s.t))
}
