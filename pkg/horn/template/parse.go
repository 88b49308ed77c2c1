package template

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Term is an argument of a parsed atom: a variable when Var is set,
// otherwise a constant.
type Term struct {
	Name string
	Var  bool
}

func (t Term) String() string { return t.Name }

// Atom is a parsed predicate such as parent(X, alice).
type Atom struct {
	Symbol string
	Args   []Term
}

func (a Atom) String() string {
	parts := make([]string, len(a.Args))
	for i, t := range a.Args {
		parts[i] = t.Name
	}
	return a.Symbol + "(" + strings.Join(parts, ",") + ")"
}

// ParseRule parses head:-body1,body2 into atoms, head first. The body may
// be empty. Anonymous variables (_ or ?) get distinct names so that each
// one occurs once.
func ParseRule(text string) ([]Atom, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "."))
	sep := strings.Index(text, ":-")
	if sep < 0 {
		return nil, fmt.Errorf("%w: missing ':-' in %q", internalerr.ErrInvalidTemplate, text)
	}

	p := &parser{src: text[:sep]}
	head, err := p.atom()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected %q after head", p.rest())
	}

	atoms := []Atom{head}
	p = &parser{src: text[sep+2:], anon: len(head.Args)}
	for p.skipSpace(); !p.eof(); p.skipSpace() {
		if len(atoms) > 1 {
			if !p.consume(',') {
				return nil, p.errorf("expected ',' before %q", p.rest())
			}
		}
		a, err := p.atom()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

// parseRestrictions parses [(p,q),(q,r)] into symbol groups.
func parseRestrictions(text string) ([][]string, error) {
	p := &parser{src: strings.TrimSpace(text)}
	if p.eof() {
		return nil, nil
	}
	if !p.consume('[') {
		return nil, p.errorf("restrictions must start with '['")
	}
	var groups [][]string
	for {
		p.skipSpace()
		if p.consume(']') {
			break
		}
		if len(groups) > 0 && !p.consume(',') {
			return nil, p.errorf("expected ',' between restriction tuples")
		}
		p.skipSpace()
		if !p.consume('(') {
			return nil, p.errorf("expected '(' to open a restriction tuple")
		}
		var group []string
		for {
			p.skipSpace()
			if p.consume(')') {
				break
			}
			if len(group) > 0 && !p.consume(',') {
				return nil, p.errorf("expected ',' between restriction symbols")
			}
			p.skipSpace()
			name := p.ident()
			if name == "" || !unicode.IsLower(rune(name[0])) {
				return nil, p.errorf("expected a predicate symbol, got %q", p.rest())
			}
			group = append(group, name)
		}
		groups = append(groups, group)
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after restrictions", p.rest())
	}
	return groups, nil
}

type parser struct {
	src  string
	pos  int
	anon int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := rune(p.src[p.pos])
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-') {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) atom() (Atom, error) {
	p.skipSpace()
	symbol := p.ident()
	if symbol == "" || !unicode.IsLower(rune(symbol[0])) {
		return Atom{}, p.errorf("expected a predicate symbol, got %q", p.rest())
	}
	if !p.consume('(') {
		return Atom{}, p.errorf("expected '(' after %s", symbol)
	}

	a := Atom{Symbol: symbol}
	for {
		if p.consume(')') {
			break
		}
		if len(a.Args) > 0 && !p.consume(',') {
			return Atom{}, p.errorf("expected ',' or ')' in %s", symbol)
		}
		p.skipSpace()
		if p.consume('?') {
			a.Args = append(a.Args, p.anonymous())
			continue
		}
		name := p.ident()
		switch {
		case name == "":
			return Atom{}, p.errorf("expected an argument in %s", symbol)
		case name == "_":
			a.Args = append(a.Args, p.anonymous())
		case unicode.IsUpper(rune(name[0])) || name[0] == '_':
			a.Args = append(a.Args, Term{Name: name, Var: true})
		default:
			a.Args = append(a.Args, Term{Name: name})
		}
	}
	if len(a.Args) == 0 {
		return Atom{}, p.errorf("%s has no arguments", symbol)
	}
	p.skipSpace()
	return a, nil
}

func (p *parser) anonymous() Term {
	p.anon++
	return Term{Name: fmt.Sprintf("_%d?", p.anon), Var: true}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s (at offset %d of %q)", internalerr.ErrInvalidTemplate, fmt.Sprintf(format, args...), p.pos, p.src)
}
