// Package eval holds the score attached to a rule after every accepted
// mutation: entailment counts plus the compression metrics derived from them.
package eval

import (
	"fmt"
	"math"
)

// Metric names a value that can be read from an Eval.
type Metric int

const (
	// CompressionRatio is E+ / (E+ + E- + |r|).
	CompressionRatio Metric = iota
	// CompressionCapacity is E+ - E- - |r|.
	CompressionCapacity
)

func (m Metric) String() string {
	switch m {
	case CompressionRatio:
		return "compression_ratio"
	case CompressionCapacity:
		return "compression_capacity"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Eval is the score of a rule against a knowledge base.
//
// Entailment counts are float64 because head completions over the constant
// universe grow as |C|^k.
type Eval struct {
	PosEtls     float64
	NegEtls     float64
	AllEtls     float64
	RuleSize    int
	HeadRecords int

	compRatio    float64
	compCapacity float64
}

// New computes an Eval from the positive and total entailment counts.
func New(posEtls, allEtls float64, ruleSize, headRecords int) Eval {
	e := Eval{
		PosEtls:     posEtls,
		NegEtls:     allEtls - posEtls,
		AllEtls:     allEtls,
		RuleSize:    ruleSize,
		HeadRecords: headRecords,
	}
	ratio := posEtls / (allEtls + float64(ruleSize))
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}
	e.compRatio = ratio
	e.compCapacity = posEtls - e.NegEtls - float64(ruleSize)
	return e
}

// Value returns the named metric.
func (e Eval) Value(m Metric) float64 {
	switch m {
	case CompressionRatio:
		return e.compRatio
	case CompressionCapacity:
		return e.compCapacity
	default:
		return 0
	}
}

// FactCoverage returns E+ over the head relation's record count. ok is
// false when the head relation has no records and coverage is undefined.
func (e Eval) FactCoverage() (coverage float64, ok bool) {
	if e.HeadRecords <= 0 {
		return 0, false
	}
	return e.PosEtls / float64(e.HeadRecords), true
}

// Better reports whether e scores strictly higher than other on m.
func (e Eval) Better(other Eval, m Metric) bool {
	return e.Value(m) > other.Value(m)
}

func (e Eval) String() string {
	return fmt.Sprintf("(+)%.0f; (-)%.0f; |%d|; τ=%.4f; δ=%.0f",
		e.PosEtls, e.NegEtls, e.RuleSize, e.compRatio, e.compCapacity)
}
