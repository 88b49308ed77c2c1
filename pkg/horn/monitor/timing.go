// Package monitor provides rule.Observer implementations: an in-process
// timing accumulator, a zap logger and prometheus metrics.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/horn/pkg/horn/rule"
)

// Timing accumulates the time spent in every pipeline stage and counts
// mutation outcomes. It is not safe for concurrent use.
type Timing struct {
	stages   map[rule.Stage]time.Duration
	calls    map[rule.Stage]int
	statuses map[rule.Status]int
	ops      map[rule.OpKind]int
}

// NewTiming returns an empty stage timer.
func NewTiming() *Timing {
	return &Timing{
		stages:   make(map[rule.Stage]time.Duration),
		calls:    make(map[rule.Stage]int),
		statuses: make(map[rule.Status]int),
		ops:      make(map[rule.OpKind]int),
	}
}

func (t *Timing) StageDone(stage rule.Stage, elapsed time.Duration) {
	t.stages[stage] += elapsed
	t.calls[stage]++
}

func (t *Timing) Updated(kind rule.OpKind, status rule.Status) {
	t.statuses[status]++
	t.ops[kind]++
}

// Stage returns the accumulated duration and call count of stage.
func (t *Timing) Stage(stage rule.Stage) (time.Duration, int) {
	return t.stages[stage], t.calls[stage]
}

// Status returns how many mutations ended with status.
func (t *Timing) Status(status rule.Status) int { return t.statuses[status] }

// Mutations returns the total number of mutations observed.
func (t *Timing) Mutations() int {
	n := 0
	for _, c := range t.ops {
		n += c
	}
	return n
}

// Total returns the time spent across all stages.
func (t *Timing) Total() time.Duration {
	var total time.Duration
	for _, d := range t.stages {
		total += d
	}
	return total
}

// Summary renders a fixed-width table of stage times and outcome counts.
func (t *Timing) Summary() string {
	var b strings.Builder
	total := t.Total()

	fmt.Fprintf(&b, "%-10s %12s %8s %7s\n", "stage", "time", "calls", "share")
	for _, s := range rule.Stages {
		share := 0.0
		if total > 0 {
			share = float64(t.stages[s]) / float64(total) * 100
		}
		fmt.Fprintf(&b, "%-10s %12s %8d %6.1f%%\n", s, t.stages[s].Round(time.Microsecond), t.calls[s], share)
	}
	fmt.Fprintf(&b, "%-10s %12s\n", "total", total.Round(time.Microsecond))

	fmt.Fprintf(&b, "mutations: %d", t.Mutations())
	for _, st := range []rule.Status{rule.Normal, rule.Duplicated, rule.Invalid, rule.InsufficientCoverage, rule.TabuPruned} {
		fmt.Fprintf(&b, " %s=%d", st, t.statuses[st])
	}
	b.WriteByte('\n')
	return b.String()
}
