package rule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/eval"
)

// Evaluator scores a rule structure against a knowledge base. It is called
// after every mutation that passes the dedup, validity and tabu checks.
type Evaluator interface {
	Evaluate(structure []Predicate) (eval.Eval, error)
}

// Session is the state shared by reference between every rule descended
// from one initial rule: the search memory plus the collaborators used by
// the evaluation stage. Clones never copy it.
type Session struct {
	Memory          *Memory
	Evaluator       Evaluator
	Observer        Observer
	MinFactCoverage float64
}

// NewSession creates a session with a fresh memory. A nil evaluator skips
// the coverage and scoring stage, which is only useful for comparing
// structures. A nil observer is replaced by NopObserver.
func NewSession(evaluator Evaluator, minFactCoverage float64, observer Observer) *Session {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Session{
		Memory:          NewMemory(),
		Evaluator:       evaluator,
		Observer:        observer,
		MinFactCoverage: minFactCoverage,
	}
}

// Memory is the dedup fingerprint set and tabu store of one search. It only
// ever grows and is not safe for concurrent use.
type Memory struct {
	searched map[Fingerprint]struct{}
	tabu     map[string][]tabuEntry
	tabuLen  int
}

type tabuEntry struct {
	fingerprint Fingerprint
	structure   []Predicate
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{
		searched: make(map[Fingerprint]struct{}),
		tabu:     make(map[string][]tabuEntry),
	}
}

// Add inserts fp and reports whether it was not present before.
func (m *Memory) Add(fp Fingerprint) bool {
	if _, ok := m.searched[fp]; ok {
		return false
	}
	m.searched[fp] = struct{}{}
	return true
}

// Contains reports whether fp was inserted before.
func (m *Memory) Contains(fp Fingerprint) bool {
	_, ok := m.searched[fp]
	return ok
}

// Len returns the number of fingerprints seen.
func (m *Memory) Len() int {
	return len(m.searched)
}

// TabuLen returns the number of structures recorded as insufficient.
func (m *Memory) TabuLen() int {
	return m.tabuLen
}

// addTabu records a structure that failed the coverage check. Every
// specialization of it would fail too.
func (m *Memory) addTabu(fp Fingerprint, structure []Predicate) {
	key := bodyKey(bodyFunctors(structure))
	for _, e := range m.tabu[key] {
		if e.fingerprint == fp {
			return
		}
	}
	m.tabu[key] = append(m.tabu[key], tabuEntry{fingerprint: fp, structure: cloneStructure(structure)})
	m.tabuLen++
}

// tabuHit reports whether some recorded structure generalizes structure.
// Only entries whose body relation multiset is contained in the body
// multiset of structure can generalize it, so those are the only ones
// visited.
func (m *Memory) tabuHit(structure []Predicate) bool {
	if m.tabuLen == 0 {
		return false
	}
	functors := bodyFunctors(structure)
	hit := false
	forEachSubMultiset(functors, func(sub []int) bool {
		for _, e := range m.tabu[bodyKey(sub)] {
			if generalizes(e.structure, structure) {
				hit = true
				return false
			}
		}
		return true
	})
	return hit
}

func bodyFunctors(structure []Predicate) []int {
	out := make([]int, 0, len(structure))
	for _, p := range structure[firstBodyIdx:] {
		out = append(out, p.Functor)
	}
	sort.Ints(out)
	return out
}

func bodyKey(sortedFunctors []int) string {
	parts := make([]string, len(sortedFunctors))
	for i, f := range sortedFunctors {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, ",")
}

// forEachSubMultiset calls fn with every sorted sub-multiset of the sorted
// input, including the empty one, until fn returns false.
func forEachSubMultiset(sorted []int, fn func([]int) bool) {
	type group struct{ val, n int }
	var groups []group
	for _, v := range sorted {
		if len(groups) > 0 && groups[len(groups)-1].val == v {
			groups[len(groups)-1].n++
			continue
		}
		groups = append(groups, group{val: v, n: 1})
	}

	counts := make([]int, len(groups))
	buf := make([]int, 0, len(sorted))
	for {
		buf = buf[:0]
		for i, g := range groups {
			for j := 0; j < counts[i]; j++ {
				buf = append(buf, g.val)
			}
		}
		if !fn(buf) {
			return
		}
		// odometer increment
		i := 0
		for ; i < len(groups); i++ {
			if counts[i] < groups[i].n {
				counts[i]++
				break
			}
			counts[i] = 0
		}
		if i == len(groups) {
			return
		}
	}
}
