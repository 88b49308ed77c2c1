package rule

import "github.com/cognicore/horn/pkg/horn/disjoint"

// isInvalid reports whether the structure is trivial or splits into
// independent fragments. Such a rule can never be accepted, and neither can
// any of its specializations that keep the offending atoms.
func (r *Rule) isInvalid() bool {
	sets := disjoint.New(len(r.varCounts))
	head := r.structure[HeadIdx]

	if !unionVars(sets, head) && len(r.structure) > firstBodyIdx {
		return true
	}

	seen := make(map[string]struct{}, len(r.structure))
	if head.Filled() {
		seen[head.key()] = struct{}{}
	}

	for _, body := range r.structure[firstBodyIdx:] {
		if body.Functor == head.Functor {
			for i, a := range body.Args {
				if !a.IsEmpty() && a == head.Args[i] {
					return true
				}
			}
		}

		if body.Filled() {
			k := body.key()
			if _, dup := seen[k]; dup {
				return true
			}
			seen[k] = struct{}{}
		}

		if !unionVars(sets, body) {
			return true
		}
	}

	return sets.Sets() > 1
}

// unionVars merges every bound variable of p into one set and reports
// whether p holds any bound variable at all.
func unionVars(sets *disjoint.Set, p Predicate) bool {
	first := -1
	for _, a := range p.Args {
		if !a.IsVariable() {
			continue
		}
		if first < 0 {
			first = a.ID
			continue
		}
		sets.Union(first, a.ID)
	}
	return first >= 0
}
