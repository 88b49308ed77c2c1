package kb

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// ParseFacts reads a fact file.
// Format:
//
//	parent/2
//	father(dad, son)
//	mother(mom, son).
//	# comments
//
// A name/arity line declares a relation that may have no facts.
func ParseFacts(r io.Reader, onDecl func(name string, arity int) error, onFact func(Fact) error) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if name, arity, ok := parseDecl(line); ok {
			if err := onDecl(name, arity); err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		fact, err := parseFact(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := onFact(fact); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

// ImportFacts parses a fact file into sink and returns the number of new
// facts.
func ImportFacts(ctx context.Context, r io.Reader, sink Sink) (int, error) {
	added := 0
	err := ParseFacts(r,
		func(name string, arity int) error {
			return sink.Declare(ctx, name, arity)
		},
		func(f Fact) error {
			ok, err := sink.AddFact(ctx, f)
			if ok {
				added++
			}
			return err
		})
	return added, err
}

func parseDecl(line string) (string, int, bool) {
	slash := strings.LastIndex(line, "/")
	if slash <= 0 || strings.ContainsAny(line, "()") {
		return "", 0, false
	}
	arity, err := strconv.Atoi(strings.TrimSpace(line[slash+1:]))
	if err != nil || arity <= 0 {
		return "", 0, false
	}
	return strings.TrimSpace(line[:slash]), arity, true
}

// parseFact parses "relation(arg, ...)" with an optional trailing period.
func parseFact(line string) (Fact, error) {
	line = strings.TrimSuffix(line, ".")

	openParen := strings.Index(line, "(")
	if openParen == -1 {
		return Fact{}, fmt.Errorf("%w: missing '(': %s", internalerr.ErrInvalidInput, line)
	}

	relation := strings.TrimSpace(line[:openParen])
	if relation == "" {
		return Fact{}, fmt.Errorf("%w: missing relation name: %s", internalerr.ErrInvalidInput, line)
	}

	closeParen := strings.LastIndex(line, ")")
	if closeParen < openParen || strings.TrimSpace(line[closeParen+1:]) != "" {
		return Fact{}, fmt.Errorf("%w: missing ')': %s", internalerr.ErrInvalidInput, line)
	}

	parts := strings.Split(line[openParen+1:closeParen], ",")
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
		if args[i] == "" {
			return Fact{}, fmt.Errorf("%w: empty argument %d: %s", internalerr.ErrInvalidInput, i, line)
		}
	}

	return Fact{Relation: relation, Args: args}, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}
