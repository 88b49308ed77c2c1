package template

import "github.com/cognicore/horn/pkg/horn/rule"

// maxOrders bounds the binding orders tried per template.
const maxOrders = 5040

// Schedule returns ts with each template's operations reordered so that no
// rule it passes through can be reached by an earlier template with the same
// head arity. Templates searched under one head share a dedup memory, so an
// intermediate rule seen before would cut the later template's branch off as
// a duplicate. A template keeps its first-appearance order when that order is
// already clear or when no order is.
func Schedule(ts []*Template) []*Template {
	out := make([]*Template, len(ts))
	seen := make(map[int]map[rule.Fingerprint]bool)
	consts := make(map[string]int)
	for i, t := range ts {
		avoid := seen[t.HeadArity()]
		if avoid == nil {
			avoid = make(map[rule.Fingerprint]bool)
			seen[t.HeadArity()] = avoid
		}

		chosen := t
		if t.plan != nil && collides(t.trace(consts), avoid) {
			tried := 0
			t.plan.orders(func(seq []string) bool {
				tried++
				alt := t.withOrder(seq)
				if !collides(alt.trace(consts), avoid) {
					chosen = alt
					return false
				}
				return tried < maxOrders
			})
		}
		for _, fp := range chosen.trace(consts) {
			avoid[fp] = true
		}
		out[i] = chosen
	}
	return out
}

func collides(trace []rule.Fingerprint, avoid map[rule.Fingerprint]bool) bool {
	for _, fp := range trace {
		if avoid[fp] {
			return true
		}
	}
	return false
}

// withOrder returns a copy of t compiled for the binding order seq.
func (t *Template) withOrder(seq []string) *Template {
	c := *t
	c.Ops, c.structIdx = t.plan.build(seq)
	return &c
}

// trace applies t's operations with every relation slot standing for one
// relation per arity, which covers any resolution of the slots, and returns
// the fingerprint after each operation.
func (t *Template) trace(consts map[string]int) []rule.Fingerprint {
	r := rule.New(placeholder(t.HeadArity()), t.HeadArity(), rule.NewSession(nil, 0, nil))
	trace := make([]rule.Fingerprint, 0, len(t.Ops))
	for _, op := range t.Ops {
		arity := 0
		if op.Slot != NoSlot {
			arity = t.Arities[op.Slot]
		}
		concrete := op.Operation(placeholder(arity), arity)
		if op.Kind == rule.OpBindConstant {
			id, ok := consts[op.Const]
			if !ok {
				id = len(consts)
				consts[op.Const] = id
			}
			concrete.Symbol = id
		}
		// the status is irrelevant here, the structure changes either way
		if _, err := concrete.Apply(r); err != nil {
			break
		}
		trace = append(trace, r.Fingerprint())
	}
	return trace
}

func placeholder(arity int) int { return -1 - arity }
