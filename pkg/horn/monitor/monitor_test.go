package monitor

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/horn/pkg/horn/rule"
)

// mutate runs two identical mutations on siblings so the second one is a
// duplicate.
func mutate(t *testing.T, obs rule.Observer) {
	t.Helper()
	sess := rule.NewSession(nil, 0, obs)
	r := rule.New(1, 2, sess)

	first := r.Clone()
	st, err := first.BindNewPairNewAtom(2, 2, 0, rule.HeadIdx, 0)
	require.NoError(t, err)
	require.Equal(t, rule.Normal, st)

	second := r.Clone()
	st, err = second.BindNewPairNewAtom(2, 2, 0, rule.HeadIdx, 0)
	require.NoError(t, err)
	require.Equal(t, rule.Duplicated, st)
}

func TestTiming(t *testing.T) {
	tm := NewTiming()
	mutate(t, tm)

	assert.Equal(t, 2, tm.Mutations())
	assert.Equal(t, 1, tm.Status(rule.Normal))
	assert.Equal(t, 1, tm.Status(rule.Duplicated))

	_, calls := tm.Stage(rule.StageDedup)
	assert.Equal(t, 2, calls)
	_, calls = tm.Stage(rule.StageValidity)
	assert.Equal(t, 1, calls, "duplicates stop before validity")
	_, calls = tm.Stage(rule.StageEvaluate)
	assert.Zero(t, calls, "no evaluator")
}

func TestTimingSummary(t *testing.T) {
	tm := NewTiming()
	tm.StageDone(rule.StageEvaluate, 3*time.Millisecond)
	tm.StageDone(rule.StageUpdate, time.Millisecond)
	tm.Updated(rule.OpBindNewPair, rule.Normal)
	tm.Updated(rule.OpBindConstant, rule.TabuPruned)

	assert.Equal(t, 4*time.Millisecond, tm.Total())
	sum := tm.Summary()
	assert.Contains(t, sum, "evaluate")
	assert.Contains(t, sum, "75.0%")
	assert.Contains(t, sum, "mutations: 2 normal=1 duplicated=0 invalid=0 insufficient_coverage=0 tabu_pruned=1")
	assert.Equal(t, len(rule.Stages)+3, strings.Count(sum, "\n"))
}

func TestTimingSummaryEmpty(t *testing.T) {
	sum := NewTiming().Summary()
	assert.Contains(t, sum, "0.0%")
	assert.Contains(t, sum, "mutations: 0")
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mutate(t, NewLogObserver(zap.New(core)))

	entries := logs.FilterMessage("mutation").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rule", entries[0].LoggerName)
	assert.Equal(t, "bind_new_pair_new_atom", entries[0].ContextMap()["op"])
	assert.Equal(t, "normal", entries[0].ContextMap()["status"])
	assert.Equal(t, "duplicated", entries[1].ContextMap()["status"])
}

func TestLogObserverRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mutate(t, NewLogObserver(zap.New(core)))
	assert.Zero(t, logs.Len())

	// nil logger must not panic
	mutate(t, NewLogObserver(nil))
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	mutate(t, rule.Observers{m, NewTiming()})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("bind_new_pair_new_atom", "normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("bind_new_pair_new_atom", "duplicated")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.mutations))
	// update, dedup and validity stages were observed
	assert.Equal(t, 3, testutil.CollectAndCount(m.stageSeconds))

	_, err = NewMetricsObserver(reg)
	require.Error(t, err, "duplicate registration")
}
