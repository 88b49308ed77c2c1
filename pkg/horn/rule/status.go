package rule

import "fmt"

// Status is the outcome of a mutation. Everything but Normal means the
// mutated rule must be discarded.
type Status int

const (
	Normal Status = iota
	// Duplicated means the resulting structure was already reached by some
	// other branch of the same search.
	Duplicated
	// Invalid means the structure is trivial or splits into independent
	// fragments and can never be accepted.
	Invalid
	InsufficientCoverage
	// TabuPruned means a more general rule already failed the coverage check.
	TabuPruned
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case Duplicated:
		return "duplicated"
	case Invalid:
		return "invalid"
	case InsufficientCoverage:
		return "insufficient_coverage"
	case TabuPruned:
		return "tabu_pruned"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// OpKind identifies one of the structural mutations.
type OpKind int

const (
	OpBindExisting OpKind = iota
	OpBindExistingNewAtom
	OpBindNewPair
	OpBindNewPairNewAtom
	OpBindConstant
	OpUnbind
)

func (k OpKind) String() string {
	switch k {
	case OpBindExisting:
		return "bind_existing"
	case OpBindExistingNewAtom:
		return "bind_existing_new_atom"
	case OpBindNewPair:
		return "bind_new_pair"
	case OpBindNewPairNewAtom:
		return "bind_new_pair_new_atom"
	case OpBindConstant:
		return "bind_constant"
	case OpUnbind:
		return "unbind"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Stage is a step of the mutation pipeline, reported to observers.
type Stage int

const (
	StageUpdate Stage = iota
	StageDedup
	StageValidity
	StageTabu
	StageEvaluate
)

// Stages lists every pipeline stage in execution order.
var Stages = []Stage{StageUpdate, StageDedup, StageValidity, StageTabu, StageEvaluate}

func (s Stage) String() string {
	switch s {
	case StageUpdate:
		return "update"
	case StageDedup:
		return "dedup"
	case StageValidity:
		return "validity"
	case StageTabu:
		return "tabu"
	case StageEvaluate:
		return "evaluate"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}
