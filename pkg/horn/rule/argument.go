package rule

import (
	"strconv"
	"strings"
)

// ArgKind tags the content of an argument slot.
type ArgKind uint8

const (
	// ArgEmpty marks an unfilled slot.
	ArgEmpty ArgKind = iota
	// ArgVariable holds a bound variable id.
	ArgVariable
	// ArgConstant holds a symbol id from the knowledge base numeration.
	ArgConstant
)

// Argument is the value of one slot of a predicate.
type Argument struct {
	Kind ArgKind
	ID   int
}

// Empty is the zero Argument, an unfilled slot.
var Empty = Argument{}

// Variable returns a bound variable argument.
func Variable(id int) Argument {
	return Argument{Kind: ArgVariable, ID: id}
}

// Constant returns a constant argument for a symbol id.
func Constant(symbol int) Argument {
	return Argument{Kind: ArgConstant, ID: symbol}
}

// IsEmpty reports whether a is an unbound slot.
func (a Argument) IsEmpty() bool { return a.Kind == ArgEmpty }

// IsVariable reports whether a is a bound variable.
func (a Argument) IsVariable() bool { return a.Kind == ArgVariable }

// IsConstant reports whether a is a constant symbol.
func (a Argument) IsConstant() bool { return a.Kind == ArgConstant }

func (a Argument) String() string {
	switch a.Kind {
	case ArgVariable:
		return "X" + strconv.Itoa(a.ID)
	case ArgConstant:
		return "#" + strconv.Itoa(a.ID)
	default:
		return "?"
	}
}

// Predicate is a relation identifier with a fixed number of argument slots.
type Predicate struct {
	Functor int
	Args    []Argument
}

// NewPredicate returns a predicate with every slot empty.
func NewPredicate(functor, arity int) Predicate {
	return Predicate{Functor: functor, Args: make([]Argument, arity)}
}

// Arity returns the number of slots.
func (p Predicate) Arity() int {
	return len(p.Args)
}

// Clone returns a copy that shares no slot storage with p.
func (p Predicate) Clone() Predicate {
	args := make([]Argument, len(p.Args))
	copy(args, p.Args)
	return Predicate{Functor: p.Functor, Args: args}
}

// Equal compares functor and every slot value.
func (p Predicate) Equal(q Predicate) bool {
	if p.Functor != q.Functor || len(p.Args) != len(q.Args) {
		return false
	}
	for i := range p.Args {
		if p.Args[i] != q.Args[i] {
			return false
		}
	}
	return true
}

// Filled reports whether no slot is empty.
func (p Predicate) Filled() bool {
	for _, a := range p.Args {
		if a.IsEmpty() {
			return false
		}
	}
	return true
}

// IsBlank reports whether every slot is empty.
func (p Predicate) IsBlank() bool {
	for _, a := range p.Args {
		if !a.IsEmpty() {
			return false
		}
	}
	return true
}

// key is the hashable identity of a predicate, used to detect duplicate atoms.
func (p Predicate) key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(p.Functor))
	for _, a := range p.Args {
		b.WriteByte('|')
		b.WriteString(a.String())
	}
	return b.String()
}

func (p Predicate) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(p.Functor))
	b.WriteByte('(')
	for i, a := range p.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func cloneStructure(structure []Predicate) []Predicate {
	out := make([]Predicate, len(structure))
	for i, p := range structure {
		out[i] = p.Clone()
	}
	return out
}
