package kb

import "sort"

// Numeration maps relation names and constants to dense positive ids. Both
// share one id space; id 0 is never assigned.
type Numeration struct {
	ids   map[string]int
	names []string
}

// NewNumeration returns an empty numeration.
func NewNumeration() *Numeration {
	return &Numeration{
		ids:   make(map[string]int),
		names: []string{""},
	}
}

// Numerate returns the id of name, assigning the next one if name is new.
func (n *Numeration) Numerate(name string) int {
	if id, ok := n.ids[name]; ok {
		return id
	}
	id := len(n.names)
	n.ids[name] = id
	n.names = append(n.names, name)
	return id
}

// ID returns the id of name.
func (n *Numeration) ID(name string) (int, bool) {
	id, ok := n.ids[name]
	return id, ok
}

// Name returns the name of id, or "" when id was never assigned.
func (n *Numeration) Name(id int) string {
	if id <= 0 || id >= len(n.names) {
		return ""
	}
	return n.names[id]
}

// Len returns the number of assigned ids.
func (n *Numeration) Len() int {
	return len(n.names) - 1
}

// Names returns every assigned name in id order.
func (n *Numeration) Names() []string {
	out := make([]string, len(n.names)-1)
	copy(out, n.names[1:])
	return out
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
