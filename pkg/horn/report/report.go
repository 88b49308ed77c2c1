// Package report packages the outcome of a template search for export.
package report

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/horn/pkg/horn/hint"
)

// Report is one search run over one knowledge base.
type Report struct {
	ID         string           `json:"id"`
	KB         string           `json:"kb"`
	Templates  []string         `json:"templates"`
	CreatedAt  time.Time        `json:"created_at"`
	Thresholds Thresholds       `json:"thresholds"`
	Candidates []hint.Candidate `json:"candidates"`
	Stats      hint.Stats       `json:"stats"`
}

type Thresholds struct {
	MinFactCoverage     float64 `json:"min_fact_coverage"`
	MinCompressionRatio float64 `json:"min_compression_ratio"`
}

// Builder assigns monotonic ULIDs so reports built in the same
// millisecond still sort by creation.
type Builder struct {
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Build creates a report. A nil candidate list becomes an empty one so the
// JSON form always carries an array.
func (b *Builder) Build(kbName string, templates []string, th Thresholds, cands []hint.Candidate, stats hint.Stats) Report {
	now := b.now()
	if cands == nil {
		cands = []hint.Candidate{}
	}
	if templates == nil {
		templates = []string{}
	}
	return Report{
		ID:         ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		KB:         kbName,
		Templates:  templates,
		CreatedAt:  now.UTC(),
		Thresholds: th,
		Candidates: cands,
		Stats:      stats,
	}
}
