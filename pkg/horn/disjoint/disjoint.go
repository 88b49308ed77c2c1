// Package disjoint implements a union-find structure over a dense integer
// id space. The rule validity check uses it to count connected components
// of the bound-variable graph.
package disjoint

// Set is a union-find forest over the ids 0..n-1.
type Set struct {
	parent []int
	rank   []int
	sets   int
}

// New creates a Set where every id in 0..n-1 is its own component.
func New(n int) *Set {
	s := &Set{
		parent: make([]int, n),
		rank:   make([]int, n),
		sets:   n,
	}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

// Find returns the representative of the component containing x.
func (s *Set) Find(x int) int {
	root := x
	for s.parent[root] != root {
		root = s.parent[root]
	}
	// path compression
	for s.parent[x] != root {
		next := s.parent[x]
		s.parent[x] = root
		x = next
	}
	return root
}

// Union merges the components of a and b.
func (s *Set) Union(a, b int) {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		s.parent[ra] = rb
	case s.rank[ra] > s.rank[rb]:
		s.parent[rb] = ra
	default:
		s.parent[rb] = ra
		s.rank[ra]++
	}
	s.sets--
}

// Sets returns the number of components.
func (s *Set) Sets() int {
	return s.sets
}

// Len returns the size of the id space.
func (s *Set) Len() int {
	return len(s.parent)
}
