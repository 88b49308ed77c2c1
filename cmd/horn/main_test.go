package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/export"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

const parentFacts = `# parent is declared but has no records
parent/2
father(dad, son)
mother(mom, son).
`

const parentHints = `0
0
p(X,Y):-q(X,Y);[(p,q)]
`

var parentRows = export.TSVHeader + "\n" +
	"parent(X0,X1):-father(X0,X1)\t2\t0\t1\t0.00\t0.00\t-3\n" +
	"parent(X0,X1):-mother(X0,X1)\t2\t0\t1\t0.00\t0.00\t-3\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHintFromFacts(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)
	hints := writeFile(t, dir, "parents.hint", parentHints)

	out, err := execute(t, "hint", "--template", hints, "--facts", facts)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules written to")

	got, err := os.ReadFile(filepath.Join(dir, "rules_parents.tsv"))
	require.NoError(t, err)
	assert.Equal(t, parentRows, string(got))
}

func TestHintDatalogBackendJSON(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)
	hints := writeFile(t, dir, "parents.hint", parentHints)
	out := filepath.Join(dir, "out.json")

	_, err := execute(t, "hint", "-t", hints, "--facts", facts, "--backend", "datalog",
		"--format", "json", "--out", out, "--kb-name", "fam")
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), `"kb": "fam"`)
	assert.Contains(t, string(got), `"rule": "parent(X0,X1):-mother(X0,X1)"`)
}

func TestHintThresholdOverrides(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)
	hints := writeFile(t, dir, "parents.hint", parentHints)
	cfg := writeFile(t, dir, "horn.yaml", "search:\n  min_compression_ratio: 0.5\n")

	out, err := execute(t, "--config", cfg, "hint", "-t", hints, "--facts", facts)
	require.NoError(t, err)
	assert.Contains(t, out, "0 rules written")

	out, err = execute(t, "--config", cfg, "hint", "-t", hints, "--facts", facts, "--min-ratio", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules written")
}

func TestImportThenHint(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)
	hints := writeFile(t, dir, "parents.hint", parentHints)
	db := filepath.Join(dir, "parents.db")

	out, err := execute(t, "import", "--facts", facts, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 facts added")

	out, err = execute(t, "import", "--facts", facts, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0 facts added", "re-import is idempotent")

	_, err = execute(t, "hint", "-t", hints, "--db", db)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "rules_parents.tsv"))
	require.NoError(t, err)
	assert.Equal(t, parentRows, string(got))
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)

	out, err := execute(t, "eval", "--facts", facts, "--rule", "parent(X,Y):-father(X,Y)")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, export.TSVHeader, lines[0])
	assert.Equal(t, "parent(X0,X1):-father(X0,X1)\t2\t0\t1\t0.00\t0.00\t-3", lines[1])
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	facts := writeFile(t, dir, "parents.facts", parentFacts)
	hints := writeFile(t, dir, "parents.hint", parentHints)

	_, err := execute(t, "hint", "--facts", facts)
	require.Error(t, err, "missing --template")

	_, err = execute(t, "hint", "-t", hints)
	require.ErrorIs(t, err, internalerr.ErrInvalidInput)

	_, err = execute(t, "hint", "-t", hints, "--facts", facts, "--backend", "prolog")
	require.ErrorIs(t, err, internalerr.ErrInvalidInput)

	_, err = execute(t, "eval", "--facts", facts, "--rule", "uncle(X,Y):-father(X,Y)")
	require.ErrorIs(t, err, internalerr.ErrUnknownSymbol)

	bad := writeFile(t, dir, "bad.yaml", "search:\n  backend: prolog\n")
	_, err = execute(t, "--config", bad, "eval", "--facts", facts, "--rule", "parent(X,Y):-father(X,Y)")
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
