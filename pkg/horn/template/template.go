// Package template compiles rule templates such as
//
//	p(X,Y):-q(X,Z),r(Z,Y);[(p,q),(p,r)]
//
// into ordered specialization operations over template functor slots, and
// reads hint files holding thresholds plus one template per line.
package template

import (
	"fmt"
	"strings"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/rule"
)

// NoSlot marks an operation that does not introduce an atom.
const NoSlot = -1

// Op is a specialization over template slots. Slot is the template functor
// slot of the atom a new-atom operation appends; Const names the constant
// of OpBindConstant. The remaining fields follow rule.Operation.
type Op struct {
	Kind  rule.OpKind
	Slot  int
	Pred  int
	Arg   int
	Pred2 int
	Arg2  int
	Var   int
	Const string
}

// Operation resolves op against a concrete functor for its slot.
func (op Op) Operation(functor, arity int) rule.Operation {
	return rule.Operation{
		Kind:    op.Kind,
		Functor: functor,
		Arity:   arity,
		Pred:    op.Pred,
		Arg:     op.Arg,
		Pred2:   op.Pred2,
		Arg2:    op.Arg2,
		Var:     op.Var,
	}
}

// Template is a compiled rule template. Slot 0 is the head.
type Template struct {
	Text    string
	Symbols []string
	Arities []int
	Ops     []Op
	// Restrictions lists groups of slots that must not all resolve to the
	// same relation.
	Restrictions [][]int

	slotGroups [][]int
	plan       *plan
	// structIdx maps a template atom to its rule structure index.
	structIdx []int
}

// HeadArity returns the arity of the head slot.
func (t *Template) HeadArity() int { return t.Arities[0] }

// Slots returns the number of template functor slots.
func (t *Template) Slots() int { return len(t.Symbols) }

// Groups returns the indices of the restriction groups containing slot.
func (t *Template) Groups(slot int) []int { return t.slotGroups[slot] }

// Parse compiles one template line: rule text, optionally followed by
// ;[restrictions].
func Parse(line string) (*Template, error) {
	text := strings.TrimSpace(line)
	ruleText, restrictionText := text, ""
	if i := strings.LastIndex(text, ";"); i >= 0 {
		ruleText, restrictionText = text[:i], text[i+1:]
	}

	atoms, err := ParseRule(ruleText)
	if err != nil {
		return nil, err
	}
	groups, err := parseRestrictions(restrictionText)
	if err != nil {
		return nil, err
	}

	t, err := compile(atoms)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", text, err)
	}
	t.Text = text
	if err := t.setRestrictions(groups); err != nil {
		return nil, fmt.Errorf("%s: %w", text, err)
	}
	return t, nil
}

type occurrence struct {
	atom int
	arg  int
}

// plan is a parsed template before a variable order is fixed. Operations
// can be emitted for any order in which every variable touches an atom that
// is already established.
type plan struct {
	atoms    []Atom
	atomSlot []int
	// shared lists the variables occurring at least twice, in order of first
	// appearance; variables occurring once stay free.
	shared      []string
	occurrences map[string][]occurrence
}

// compile turns parsed atoms into operations, binding shared variables in
// order of first appearance among those touching an established atom.
func compile(atoms []Atom) (*Template, error) {
	t := &Template{}
	p := &plan{
		atoms:       atoms,
		atomSlot:    make([]int, len(atoms)),
		occurrences: make(map[string][]occurrence),
	}
	slotOf := make(map[string]int)
	for i, a := range atoms {
		slot, ok := slotOf[a.Symbol]
		if !ok {
			slot = len(t.Symbols)
			slotOf[a.Symbol] = slot
			t.Symbols = append(t.Symbols, a.Symbol)
			t.Arities = append(t.Arities, len(a.Args))
		} else if t.Arities[slot] != len(a.Args) {
			return nil, fmt.Errorf("%w: %s used with arity %d and %d", internalerr.ErrInvalidTemplate, a.Symbol, t.Arities[slot], len(a.Args))
		}
		p.atomSlot[i] = slot
	}

	var order []string
	for i, a := range atoms {
		for j, term := range a.Args {
			if !term.Var {
				continue
			}
			if _, seen := p.occurrences[term.Name]; !seen {
				order = append(order, term.Name)
			}
			p.occurrences[term.Name] = append(p.occurrences[term.Name], occurrence{atom: i, arg: j})
		}
	}
	for _, name := range order {
		if len(p.occurrences[name]) > 1 {
			p.shared = append(p.shared, name)
		}
	}

	// the first complete order is the greedy one
	seq, found := p.greedy(), false
	p.orders(func(s []string) bool {
		seq, found = s, true
		return false
	})
	for i, ok := range p.establishedBy(seq) {
		if !ok {
			return nil, fmt.Errorf("%w: %s is not connected to the head", internalerr.ErrInvalidTemplate, atoms[i])
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: a shared variable is not connected to the head", internalerr.ErrInvalidTemplate)
	}

	t.plan = p
	t.Ops, t.structIdx = p.build(seq)
	return t, nil
}

// touches reports whether name occurs in an established atom.
func (p *plan) touches(name string, established []bool) bool {
	for _, occ := range p.occurrences[name] {
		if established[occ.atom] {
			return true
		}
	}
	return false
}

// greedy binds variables in first-appearance order as long as one touches
// an established atom and returns the resulting partial order.
func (p *plan) greedy() []string {
	established := make([]bool, len(p.atoms))
	established[0] = true
	done := make(map[string]bool)
	var seq []string
	for progress := true; progress; {
		progress = false
		for _, name := range p.shared {
			if done[name] || !p.touches(name, established) {
				continue
			}
			done[name] = true
			seq = append(seq, name)
			for _, occ := range p.occurrences[name] {
				established[occ.atom] = true
			}
			progress = true
			break
		}
	}
	return seq
}

func (p *plan) establishedBy(seq []string) []bool {
	established := make([]bool, len(p.atoms))
	established[0] = true
	for _, name := range seq {
		for _, occ := range p.occurrences[name] {
			established[occ.atom] = true
		}
	}
	return established
}

// orders calls yield with every complete binding order, first-appearance
// order first, until yield returns false.
func (p *plan) orders(yield func([]string) bool) {
	established := make([]bool, len(p.atoms))
	established[0] = true
	used := make(map[string]bool, len(p.shared))
	seq := make([]string, 0, len(p.shared))

	var walk func() bool
	walk = func() bool {
		if len(seq) == len(p.shared) {
			return yield(append([]string(nil), seq...))
		}
		for _, name := range p.shared {
			if used[name] || !p.touches(name, established) {
				continue
			}
			var newly []int
			for _, occ := range p.occurrences[name] {
				if !established[occ.atom] {
					established[occ.atom] = true
					newly = append(newly, occ.atom)
				}
			}
			used[name] = true
			seq = append(seq, name)

			more := walk()

			seq = seq[:len(seq)-1]
			used[name] = false
			for _, a := range newly {
				established[a] = false
			}
			if !more {
				return false
			}
		}
		return true
	}
	walk()
}

// build emits the operations for a complete binding order. Atoms are
// established in the order operations append them; structIdx maps each
// template atom to its index in the resulting rule structure.
func (p *plan) build(seq []string) (ops []Op, structIdx []int) {
	structIdx = make([]int, len(p.atoms))
	for i := range structIdx {
		structIdx[i] = -1
	}
	structIdx[0] = rule.HeadIdx
	next := 1
	establish := func(atom int) {
		structIdx[atom] = next
		next++
	}

	for varID, name := range seq {
		occs := p.occurrences[name]
		first := 0
		for i, occ := range occs {
			if structIdx[occ.atom] >= 0 {
				first = i
				break
			}
		}

		// the established occurrence leads, the rest keep template order
		rest := make([]occurrence, 0, len(occs)-1)
		rest = append(rest, occs[:first]...)
		rest = append(rest, occs[first+1:]...)
		lead := occs[first]

		second := rest[0]
		if idx := structIdx[second.atom]; idx >= 0 {
			ops = append(ops, Op{Kind: rule.OpBindNewPair, Slot: NoSlot,
				Pred: structIdx[lead.atom], Arg: lead.arg, Pred2: idx, Arg2: second.arg})
		} else {
			ops = append(ops, Op{Kind: rule.OpBindNewPairNewAtom, Slot: p.atomSlot[second.atom],
				Arg: second.arg, Pred2: structIdx[lead.atom], Arg2: lead.arg})
			establish(second.atom)
		}

		for _, occ := range rest[1:] {
			if idx := structIdx[occ.atom]; idx >= 0 {
				ops = append(ops, Op{Kind: rule.OpBindExisting, Slot: NoSlot,
					Pred: idx, Arg: occ.arg, Var: varID})
			} else {
				ops = append(ops, Op{Kind: rule.OpBindExistingNewAtom, Slot: p.atomSlot[occ.atom],
					Arg: occ.arg, Var: varID})
				establish(occ.atom)
			}
		}
	}

	for i, a := range p.atoms {
		for j, term := range a.Args {
			if !term.Var {
				ops = append(ops, Op{Kind: rule.OpBindConstant, Slot: NoSlot,
					Pred: structIdx[i], Arg: j, Const: term.Name})
			}
		}
	}
	return ops, structIdx
}

// Arrange reorders a structure built from t's operations into the atom
// order of the template text.
func (t *Template) Arrange(structure []rule.Predicate) []rule.Predicate {
	if len(structure) != len(t.structIdx) {
		return structure
	}
	out := make([]rule.Predicate, len(structure))
	for i, idx := range t.structIdx {
		out[i] = structure[idx]
	}
	return out
}

func (t *Template) setRestrictions(groups [][]string) error {
	slotOf := make(map[string]int, len(t.Symbols))
	for i, s := range t.Symbols {
		slotOf[s] = i
	}
	t.slotGroups = make([][]int, len(t.Symbols))
	for _, group := range groups {
		if len(group) < 2 {
			return fmt.Errorf("%w: restriction %v needs at least two symbols", internalerr.ErrInvalidTemplate, group)
		}
		seen := make(map[int]bool, len(group))
		slots := make([]int, 0, len(group))
		for _, sym := range group {
			slot, ok := slotOf[sym]
			if !ok {
				return fmt.Errorf("%w: restriction symbol %s not in template", internalerr.ErrInvalidTemplate, sym)
			}
			if seen[slot] {
				return fmt.Errorf("%w: restriction %v repeats %s", internalerr.ErrInvalidTemplate, group, sym)
			}
			seen[slot] = true
			slots = append(slots, slot)
		}
		gi := len(t.Restrictions)
		t.Restrictions = append(t.Restrictions, slots)
		for _, slot := range slots {
			t.slotGroups[slot] = append(t.slotGroups[slot], gi)
		}
	}
	return nil
}
