package template

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// HintFile is the content of a hint file.
// Format:
//
//	0.2                       fact coverage threshold
//	0.8                       compression ratio threshold
//	p(X,Y):-q(Y,X);[]
//	p(X,Y):-q(X,Z),r(Z,Y);[(p,q),(p,r)]
//	# comments
type HintFile struct {
	MinFactCoverage     float64
	MinCompressionRatio float64
	Templates           []*Template
}

// ParseHintFile reads thresholds and templates. Any malformed line fails
// the whole file.
func ParseHintFile(r io.Reader) (*HintFile, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	var thresholds []float64
	hf := &HintFile{}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if len(thresholds) < 2 {
			v, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: threshold %q: %v", lineNum, internalerr.ErrInvalidTemplate, line, err)
			}
			thresholds = append(thresholds, v)
			continue
		}

		t, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		hf.Templates = append(hf.Templates, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	switch len(thresholds) {
	case 0:
		return nil, fmt.Errorf("%w: missing fact coverage setting", internalerr.ErrInvalidTemplate)
	case 1:
		return nil, fmt.Errorf("%w: missing compression ratio setting", internalerr.ErrInvalidTemplate)
	}
	hf.MinFactCoverage = thresholds[0]
	hf.MinCompressionRatio = thresholds[1]
	return hf, nil
}
