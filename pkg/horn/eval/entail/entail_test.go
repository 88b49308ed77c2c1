package entail_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/eval"
	"github.com/cognicore/horn/pkg/horn/eval/entail"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
)

const families = 10

func familyKB(t *testing.T) *kb.KB {
	t.Helper()
	k := kb.New("family")
	add := func(rel string, args ...string) {
		_, err := k.AddRecord(rel, args)
		require.NoError(t, err)
	}
	for i := 0; i < families; i++ {
		n := strconv.Itoa(i)
		dad, mom, son, daughter := "dad"+n, "mom"+n, "son"+n, "daughter"+n
		add("family", dad, mom, son)
		add("family", dad, mom, daughter)
		add("father", dad, son)
		add("father", dad, daughter)
		add("mother", mom, son)
		add("mother", mom, daughter)
		add("parent", dad, son)
		add("parent", dad, daughter)
		add("parent", mom, son)
		add("parent", mom, daughter)
	}
	return k
}

func rel(t *testing.T, k *kb.KB, name string) int {
	t.Helper()
	r, ok := k.RelationByName(name)
	require.True(t, ok, name)
	return r.ID
}

func sym(t *testing.T, k *kb.KB, name string) int {
	t.Helper()
	id, ok := k.Numeration().ID(name)
	require.True(t, ok, name)
	return id
}

func atom(functor int, args ...rule.Argument) rule.Predicate {
	return rule.Predicate{Functor: functor, Args: args}
}

func TestEvaluate(t *testing.T) {
	k := familyKB(t)
	ev := entail.New(k)
	parent, father, mother, family := rel(t, k, "parent"), rel(t, k, "father"), rel(t, k, "mother"), rel(t, k, "family")
	x, y, z := rule.Variable(0), rule.Variable(1), rule.Variable(2)
	constants := float64(4 * families)

	tests := []struct {
		name      string
		structure []rule.Predicate
		pos, all  float64
		size      int
	}{
		{
			name:      "parent from father",
			structure: []rule.Predicate{atom(parent, x, y), atom(father, x, y)},
			pos:       20, all: 20, size: 2,
		},
		{
			name:      "parent from reversed father",
			structure: []rule.Predicate{atom(parent, x, y), atom(father, y, x)},
			pos:       0, all: 20, size: 2,
		},
		{
			name:      "free head slot",
			structure: []rule.Predicate{atom(parent, x, rule.Empty), atom(father, x, rule.Empty)},
			pos:       20, all: 10 * constants, size: 1,
		},
		{
			name:      "head only",
			structure: []rule.Predicate{atom(parent, x, x)},
			pos:       0, all: constants, size: 1,
		},
		{
			name:      "family join",
			structure: []rule.Predicate{atom(family, x, y, z), atom(father, x, z), atom(mother, y, z)},
			pos:       20, all: 20, size: 4,
		},
		{
			name:      "constant in body",
			structure: []rule.Predicate{atom(parent, x, y), atom(father, x, y), atom(father, rule.Constant(sym(t, k, "dad3")), y)},
			pos:       2, all: 2, size: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(tt.structure)
			require.NoError(t, err)
			assert.Equal(t, tt.pos, got.PosEtls)
			assert.Equal(t, tt.all, got.AllEtls)
			assert.Equal(t, tt.all-tt.pos, got.NegEtls)
			assert.Equal(t, tt.size, got.RuleSize)
			head, _ := k.Relation(tt.structure[rule.HeadIdx].Functor)
			assert.Equal(t, head.Len(), got.HeadRecords)
		})
	}
}

func TestEvaluateMetrics(t *testing.T) {
	k := familyKB(t)
	parent, father := rel(t, k, "parent"), rel(t, k, "father")
	x, y := rule.Variable(0), rule.Variable(1)

	got, err := entail.New(k).Evaluate([]rule.Predicate{atom(parent, x, y), atom(father, x, y)})
	require.NoError(t, err)
	assert.InDelta(t, 20.0/22.0, got.Value(eval.CompressionRatio), 1e-9)
	assert.Equal(t, 18.0, got.Value(eval.CompressionCapacity))
	cov, ok := got.FactCoverage()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, cov, 1e-9)
}

func TestEvaluateUnknownRelation(t *testing.T) {
	k := familyKB(t)
	_, err := entail.New(k).Evaluate([]rule.Predicate{atom(999, rule.Empty)})
	require.True(t, errors.Is(err, internalerr.ErrUnknownSymbol))

	_, err = entail.New(k).Evaluate([]rule.Predicate{
		atom(rel(t, k, "parent"), rule.Variable(0), rule.Empty),
		atom(999, rule.Variable(0)),
	})
	require.ErrorIs(t, err, internalerr.ErrUnknownSymbol)
}

type countingProjector struct {
	inner entail.Projector
	calls int
}

func (c *countingProjector) Project(body []rule.Predicate, vars []int) ([][]int, error) {
	c.calls++
	return c.inner.Project(body, vars)
}

func TestWithProjector(t *testing.T) {
	k := familyKB(t)
	proj := &countingProjector{inner: entail.NewJoin(k)}
	ev := entail.New(k, entail.WithProjector(proj))

	x, y := rule.Variable(0), rule.Variable(1)
	_, err := ev.Evaluate([]rule.Predicate{atom(rel(t, k, "parent"), x, y)})
	require.NoError(t, err)
	assert.Equal(t, 0, proj.calls, "empty bodies are not projected")

	_, err = ev.Evaluate([]rule.Predicate{atom(rel(t, k, "parent"), x, y), atom(rel(t, k, "mother"), x, y)})
	require.NoError(t, err)
	assert.Equal(t, 1, proj.calls)
}

func TestJoinProject(t *testing.T) {
	k := familyKB(t)
	father, mother := rel(t, k, "father"), rel(t, k, "mother")
	x, y, z := rule.Variable(0), rule.Variable(1), rule.Variable(2)
	j := entail.NewJoin(k)

	// dads and moms sharing a child, projected onto the pair
	got, err := j.Project([]rule.Predicate{atom(father, x, z), atom(mother, y, z)}, []int{0, 1})
	require.NoError(t, err)
	assert.Len(t, got, families)

	got, err = j.Project([]rule.Predicate{atom(father, x, y), atom(mother, x, y)}, nil)
	require.NoError(t, err)
	assert.Empty(t, got, "no father is a mother")

	got, err = j.Project([]rule.Predicate{atom(father, x, rule.Empty)}, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{}}, got)
}
