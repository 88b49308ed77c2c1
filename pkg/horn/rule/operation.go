package rule

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Operation is one concrete structural mutation. Which fields are read
// depends on Kind:
//
//	OpBindExisting         Pred, Arg, Var
//	OpBindExistingNewAtom  Functor, Arity, Arg, Var
//	OpBindNewPair          Pred, Arg, Pred2, Arg2
//	OpBindNewPairNewAtom   Functor, Arity, Arg, Pred2, Arg2
//	OpBindConstant         Pred, Arg, Symbol
//	OpUnbind               Pred, Arg
type Operation struct {
	Kind    OpKind
	Functor int
	Arity   int
	Pred    int
	Arg     int
	Pred2   int
	Arg2    int
	Var     int
	Symbol  int
}

// Apply runs op on r in place. The rule must be discarded unless the
// returned status is Normal.
func (op Operation) Apply(r *Rule) (Status, error) {
	switch op.Kind {
	case OpBindExisting:
		return r.BindExisting(op.Pred, op.Arg, op.Var)
	case OpBindExistingNewAtom:
		return r.BindExistingNewAtom(op.Functor, op.Arity, op.Arg, op.Var)
	case OpBindNewPair:
		return r.BindNewPair(op.Pred, op.Arg, op.Pred2, op.Arg2)
	case OpBindNewPairNewAtom:
		return r.BindNewPairNewAtom(op.Functor, op.Arity, op.Arg, op.Pred2, op.Arg2)
	case OpBindConstant:
		return r.BindConstant(op.Pred, op.Arg, op.Symbol)
	case OpUnbind:
		return r.Unbind(op.Pred, op.Arg)
	default:
		return Invalid, fmt.Errorf("%w: unknown operation kind %d", internalerr.ErrInvalidOperation, int(op.Kind))
	}
}

// Specialize applies op to a clone of r and returns the clone. r itself is
// never modified, so a rejected specialization needs no cleanup. The
// returned rule is only meaningful when the status is Normal.
func (r *Rule) Specialize(op Operation) (*Rule, Status, error) {
	next := r.Clone()
	status, err := op.Apply(next)
	return next, status, err
}

func (op Operation) String() string {
	switch op.Kind {
	case OpBindExisting:
		return fmt.Sprintf("%s(%d,%d,X%d)", op.Kind, op.Pred, op.Arg, op.Var)
	case OpBindExistingNewAtom:
		return fmt.Sprintf("%s(%d/%d,%d,X%d)", op.Kind, op.Functor, op.Arity, op.Arg, op.Var)
	case OpBindNewPair:
		return fmt.Sprintf("%s(%d,%d,%d,%d)", op.Kind, op.Pred, op.Arg, op.Pred2, op.Arg2)
	case OpBindNewPairNewAtom:
		return fmt.Sprintf("%s(%d/%d,%d,%d,%d)", op.Kind, op.Functor, op.Arity, op.Arg, op.Pred2, op.Arg2)
	case OpBindConstant:
		return fmt.Sprintf("%s(%d,%d,#%d)", op.Kind, op.Pred, op.Arg, op.Symbol)
	default:
		return fmt.Sprintf("%s(%d,%d)", op.Kind, op.Pred, op.Arg)
	}
}
