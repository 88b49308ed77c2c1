package rule

// term is an argument of the specific rule during subsumption matching.
// Empty slots of the specific rule act as distinct fresh variables, so they
// carry their slot position to stay unequal to each other.
type term struct {
	arg  Argument
	slot int
}

func termAt(structure []Predicate, pred, arg int) term {
	a := structure[pred].Args[arg]
	if a.IsEmpty() {
		return term{arg: a, slot: pred*1024 + arg + 1}
	}
	return term{arg: a}
}

// generalizes reports whether general subsumes specific: there is a
// substitution of the variables of general that maps its head onto the head
// of specific and every body atom onto some body atom of specific. Any
// record entailed by specific is then entailed by general.
func generalizes(general, specific []Predicate) bool {
	if len(general) == 0 || len(specific) == 0 {
		return false
	}
	m := matcher{
		general:  general,
		specific: specific,
		binding:  make(map[int]term),
	}
	mark := len(m.trail)
	if !m.matchAtom(HeadIdx, HeadIdx) {
		m.undo(mark)
		return false
	}
	return m.matchBody(firstBodyIdx)
}

type matcher struct {
	general  []Predicate
	specific []Predicate
	binding  map[int]term
	trail    []int
}

func (m *matcher) matchBody(gi int) bool {
	if gi == len(m.general) {
		return true
	}
	gp := m.general[gi]
	for si := firstBodyIdx; si < len(m.specific); si++ {
		if m.specific[si].Functor != gp.Functor {
			continue
		}
		mark := len(m.trail)
		if m.matchAtom(gi, si) && m.matchBody(gi+1) {
			return true
		}
		m.undo(mark)
	}
	return false
}

func (m *matcher) matchAtom(gi, si int) bool {
	gp, sp := m.general[gi], m.specific[si]
	if gp.Functor != sp.Functor || len(gp.Args) != len(sp.Args) {
		return false
	}
	for i, ga := range gp.Args {
		st := termAt(m.specific, si, i)
		switch ga.Kind {
		case ArgEmpty:
			continue
		case ArgConstant:
			if st.arg != ga {
				return false
			}
		case ArgVariable:
			if bound, ok := m.binding[ga.ID]; ok {
				if bound != st {
					return false
				}
				continue
			}
			m.binding[ga.ID] = st
			m.trail = append(m.trail, ga.ID)
		}
	}
	return true
}

func (m *matcher) undo(mark int) {
	for _, id := range m.trail[mark:] {
		delete(m.binding, id)
	}
	m.trail = m.trail[:mark]
}
