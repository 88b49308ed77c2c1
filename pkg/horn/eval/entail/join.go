package entail

import (
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
)

// Join is a backtracking nested-loop join over the in-memory KB. At each
// step it expands the remaining atom with the most bound slots, reading
// candidate records through the per-position index.
type Join struct {
	kb *kb.KB
}

// NewJoin returns the default projector.
func NewJoin(k *kb.KB) *Join {
	return &Join{kb: k}
}

type joinState struct {
	kb      *kb.KB
	body    []rule.Predicate
	done    []bool
	binding map[int]int
	vars    []int
	seen    map[string]struct{}
	out     [][]int
	scratch []int
}

// Project implements Projector.
func (j *Join) Project(body []rule.Predicate, vars []int) ([][]int, error) {
	st := &joinState{
		kb:      j.kb,
		body:    body,
		done:    make([]bool, len(body)),
		binding: make(map[int]int),
		vars:    vars,
		seen:    make(map[string]struct{}),
		scratch: make([]int, len(vars)),
	}
	st.solve(len(body))
	return st.out, nil
}

func (st *joinState) solve(remaining int) {
	if remaining == 0 {
		for i, v := range st.vars {
			st.scratch[i] = st.binding[v]
		}
		key := tupleKey(st.scratch)
		if _, dup := st.seen[key]; dup {
			return
		}
		st.seen[key] = struct{}{}
		tuple := make([]int, len(st.scratch))
		copy(tuple, st.scratch)
		st.out = append(st.out, tuple)
		return
	}

	idx := st.pick()
	st.done[idx] = true
	defer func() { st.done[idx] = false }()

	atom := st.body[idx]
	rel, ok := st.kb.Relation(atom.Functor)
	if !ok {
		return
	}
	bound := make([]int, 0, len(atom.Args))
	for _, rec := range st.candidates(atom, rel) {
		bound = bound[:0]
		if st.unify(atom, rec, &bound) {
			st.solve(remaining - 1)
		}
		for _, v := range bound {
			delete(st.binding, v)
		}
	}
}

// pick returns the pending atom with the most bound slots.
func (st *joinState) pick() int {
	best, bestBound := -1, -1
	for i, atom := range st.body {
		if st.done[i] {
			continue
		}
		n := 0
		for _, a := range atom.Args {
			if a.IsConstant() {
				n++
			} else if a.IsVariable() {
				if _, ok := st.binding[a.ID]; ok {
					n++
				}
			}
		}
		if n > bestBound {
			best, bestBound = i, n
		}
	}
	return best
}

// candidates narrows the records of rel using the most selective bound slot.
func (st *joinState) candidates(atom rule.Predicate, rel *kb.Relation) [][]int {
	recs := rel.Records()
	for pos, a := range atom.Args {
		val, ok := st.value(a)
		if !ok {
			continue
		}
		if m := rel.Matching(pos, val); len(m) < len(recs) {
			recs = m
		}
	}
	return recs
}

func (st *joinState) value(a rule.Argument) (int, bool) {
	switch {
	case a.IsConstant():
		return a.ID, true
	case a.IsVariable():
		v, ok := st.binding[a.ID]
		return v, ok
	}
	return 0, false
}

// unify extends the binding with rec, appending newly bound variables to
// bound. It stops at the first conflict.
func (st *joinState) unify(atom rule.Predicate, rec []int, bound *[]int) bool {
	for pos, a := range atom.Args {
		switch {
		case a.IsConstant():
			if rec[pos] != a.ID {
				return false
			}
		case a.IsVariable():
			if v, ok := st.binding[a.ID]; ok {
				if v != rec[pos] {
					return false
				}
				continue
			}
			st.binding[a.ID] = rec[pos]
			*bound = append(*bound, a.ID)
		}
	}
	return true
}
