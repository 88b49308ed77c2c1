package report

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/horn/pkg/horn/hint"
)

func TestBuildEmpty(t *testing.T) {
	r := New().Build("family", nil, Thresholds{}, nil, hint.Stats{})
	if r.Candidates == nil || r.Templates == nil {
		t.Errorf("nil slices should become empty: candidates %v, templates %v", r.Candidates, r.Templates)
	}
	if r.KB != "family" {
		t.Errorf("KB = %q", r.KB)
	}

	id, err := ulid.Parse(r.ID)
	if err != nil {
		t.Fatalf("ID %q: %v", r.ID, err)
	}
	if d := r.CreatedAt.Sub(ulid.Time(id.Time())); d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("ID time is %v away from CreatedAt", d)
	}
}

func TestBuildULIDsAreMonotonic(t *testing.T) {
	b := New()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	prev := ""
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := b.Build("kb", nil, Thresholds{}, nil, hint.Stats{}).ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if id <= prev {
			t.Fatalf("id %s not after %s", id, prev)
		}
		prev = id
	}
}

func TestBuildKeepsCandidates(t *testing.T) {
	cands := []hint.Candidate{{Rule: "parent(X0,X1):-father(X0,X1)", CompressionRatio: 0.9}}
	th := Thresholds{MinFactCoverage: 0.2, MinCompressionRatio: 0.8}
	r := New().Build("family", []string{"p(X,Y):-q(X,Y);[]"}, th, cands, hint.Stats{Candidates: 1})

	if diff := cmp.Diff(cands, r.Candidates); diff != "" {
		t.Errorf("candidates (-want +got):\n%s", diff)
	}
	if r.Thresholds != th {
		t.Errorf("thresholds = %+v, want %+v", r.Thresholds, th)
	}
	if r.Stats.Candidates != 1 {
		t.Errorf("stats candidates = %d", r.Stats.Candidates)
	}
}
