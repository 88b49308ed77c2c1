package rule

import (
	"strconv"
	"strings"
)

// Namer maps relation and constant ids back to their textual names. An empty
// name falls back to the numeric id.
type Namer interface {
	Name(id int) string
}

// Render formats the rule as head:-body1,body2. Variables render as X<id>,
// empty slots as ?, relations and constants through n. A nil Namer prints
// raw ids.
func (r *Rule) Render(n Namer) string {
	return RenderStructure(r.structure, n)
}

// RenderStructure formats an arbitrary structure the way Render does.
func RenderStructure(structure []Predicate, n Namer) string {
	var b strings.Builder
	for i, p := range structure {
		switch {
		case i == firstBodyIdx:
			b.WriteString(":-")
		case i > firstBodyIdx:
			b.WriteByte(',')
		}
		writeAtom(&b, p, n)
	}
	if len(structure) == firstBodyIdx {
		b.WriteString(":-")
	}
	return b.String()
}

func writeAtom(b *strings.Builder, p Predicate, n Namer) {
	b.WriteString(name(n, p.Functor))
	b.WriteByte('(')
	for i, a := range p.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		switch a.Kind {
		case ArgVariable:
			b.WriteString("X")
			b.WriteString(strconv.Itoa(a.ID))
		case ArgConstant:
			b.WriteString(name(n, a.ID))
		default:
			b.WriteByte('?')
		}
	}
	b.WriteByte(')')
}

func name(n Namer, id int) string {
	if n != nil {
		if s := n.Name(id); s != "" {
			return s
		}
	}
	return strconv.Itoa(id)
}

// Canonical returns a copy of structure with bound variables renumbered in
// order of first left-to-right occurrence.
func Canonical(structure []Predicate) []Predicate {
	out := cloneStructure(structure)
	ids := make(map[int]int)
	for _, p := range out {
		for i, a := range p.Args {
			if a.Kind != ArgVariable {
				continue
			}
			id, ok := ids[a.ID]
			if !ok {
				id = len(ids)
				ids[a.ID] = id
			}
			p.Args[i] = Variable(id)
		}
	}
	return out
}
