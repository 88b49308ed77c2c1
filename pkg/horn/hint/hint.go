// Package hint grounds rule templates against a knowledge base. For every
// relation it seeds a head-only rule and runs a depth-first search over
// each matching template's operations, branching over concrete relations
// wherever the template introduces a new predicate symbol.
package hint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/eval"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/rule"
	"github.com/cognicore/horn/pkg/horn/template"
)

// Options configures a Hinter.
type Options struct {
	MinFactCoverage     float64
	MinCompressionRatio float64
	// MaxFingerprints caps the search memory of one head relation; 0 means
	// unbounded. Once reached, that head's search stops descending.
	MaxFingerprints int
	Logger          *zap.Logger
	Observer        rule.Observer
}

// Candidate is an accepted, fully grounded rule.
type Candidate struct {
	Rule     string  `json:"rule"`
	Head     string  `json:"head"`
	Template string  `json:"template,omitempty"`
	Size     int     `json:"size"`
	PosEtls  float64 `json:"pos_etls"`
	NegEtls  float64 `json:"neg_etls"`
	// FactCoverage is E+ over the head relation's records, in percent.
	FactCoverage        float64 `json:"fact_coverage"`
	CompressionRatio    float64 `json:"compression_ratio"`
	CompressionCapacity float64 `json:"compression_capacity"`
}

// Stats summarizes a run.
type Stats struct {
	Heads        int           `json:"heads"`
	Templates    int           `json:"templates"`
	Candidates   int           `json:"candidates"`
	Fingerprints int           `json:"fingerprints"`
	TabuEntries  int           `json:"tabu_entries"`
	CappedHeads  int           `json:"capped_heads"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Hinter runs template searches over one KB.
type Hinter struct {
	kb    *kb.KB
	ev    rule.Evaluator
	opts  Options
	log   *zap.Logger
	stats Stats
}

// New creates a Hinter. The evaluator scores every accepted mutation.
func New(k *kb.KB, ev rule.Evaluator, opts Options) (*Hinter, error) {
	if k == nil || ev == nil {
		return nil, fmt.Errorf("%w: hinter needs a knowledge base and an evaluator", internalerr.ErrInvalidInput)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Hinter{kb: k, ev: ev, opts: opts, log: log}, nil
}

// Stats returns the statistics of the last Run.
func (h *Hinter) Stats() Stats { return h.stats }

// Run searches every template under every head relation and returns the
// accepted candidates sorted by compression ratio, highest first. The
// context is checked between head relations.
func (h *Hinter) Run(ctx context.Context, templates []*template.Template) ([]Candidate, error) {
	start := time.Now()
	h.stats = Stats{Templates: len(templates)}
	templates = template.Schedule(templates)
	var out []Candidate

	for _, head := range h.kb.Relations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands, err := h.searchHead(head, templates)
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompressionRatio > out[j].CompressionRatio
	})
	h.stats.Candidates = len(out)
	h.stats.Elapsed = time.Since(start)
	h.log.Info("template search finished",
		zap.String("kb", h.kb.Name()),
		zap.Int("heads", h.stats.Heads),
		zap.Int("candidates", h.stats.Candidates),
		zap.Int("fingerprints", h.stats.Fingerprints),
		zap.Duration("elapsed", h.stats.Elapsed),
	)
	return out, nil
}

// searchHead runs every matching template with a private session so that
// dedup and tabu memory never cross head relations.
func (h *Hinter) searchHead(head *kb.Relation, templates []*template.Template) ([]Candidate, error) {
	sess := rule.NewSession(h.ev, h.opts.MinFactCoverage, h.opts.Observer)
	initial := rule.New(head.ID, head.Arity, sess)
	evaluated := false
	var out []Candidate

	for _, t := range templates {
		if t.HeadArity() != head.Arity {
			continue
		}
		if !evaluated {
			if err := initial.Evaluate(); err != nil {
				return nil, fmt.Errorf("evaluate %s: %w", head.Name, err)
			}
			evaluated = true
		}

		s, err := h.newSearch(t, head, sess)
		if err != nil {
			return nil, err
		}
		if err := s.specialize(initial, 0); err != nil {
			return nil, fmt.Errorf("template %s under %s: %w", t.Text, head.Name, err)
		}
		out = append(out, s.found...)
		if s.capped {
			h.stats.CappedHeads++
			h.log.Warn("search memory cap reached",
				zap.String("head", head.Name),
				zap.Int("fingerprints", sess.Memory.Len()),
			)
			break
		}
	}

	if evaluated {
		h.stats.Heads++
		h.stats.Fingerprints += sess.Memory.Len()
		h.stats.TabuEntries += sess.Memory.TabuLen()
		h.log.Debug("head searched",
			zap.String("head", head.Name),
			zap.Int("candidates", len(out)),
			zap.Int("fingerprints", sess.Memory.Len()),
		)
	}
	return out, nil
}

// newCandidate reports r in the atom order of t, or as built when t is nil.
func newCandidate(k *kb.KB, r *rule.Rule, head *kb.Relation, t *template.Template) Candidate {
	ev := r.Eval()
	fc := 0.0
	if head.Len() > 0 {
		fc = ev.PosEtls / float64(head.Len()) * 100
	}
	text, structure := "", r.Structure()
	if t != nil {
		text, structure = t.Text, rule.Canonical(t.Arrange(structure))
	}
	return Candidate{
		Rule:                rule.RenderStructure(structure, k.Numeration()),
		Head:                head.Name,
		Template:            text,
		Size:                r.Size(),
		PosEtls:             ev.PosEtls,
		NegEtls:             ev.NegEtls,
		FactCoverage:        fc,
		CompressionRatio:    ev.Value(eval.CompressionRatio),
		CompressionCapacity: ev.Value(eval.CompressionCapacity),
	}
}
