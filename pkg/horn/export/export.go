// Package export renders search reports and hands them to a RuleWriter.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/horn/pkg/horn/hint"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/report"
)

// RuleWriter persists rendered rules to a destination (file, DB, etc.).
type RuleWriter interface {
	WriteRules(ctx context.Context, content string) error
}

// Exporter renders a report through its writer.
type Exporter interface {
	Export(ctx context.Context, r report.Report) error
}

// New returns the exporter for format, "tsv" or "json".
func New(format string, w RuleWriter) (Exporter, error) {
	switch format {
	case "", "tsv":
		return &TSVExporter{Writer: w}, nil
	case "json":
		return &JSONExporter{Writer: w}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", internalerr.ErrInvalidInput, format)
	}
}

// TSVHeader is the first line of every TSV export.
const TSVHeader = "rule\t|r|\tE+\tE-\tFC\tτ\tδ"

// TSVExporter writes one tab separated row per candidate.
type TSVExporter struct {
	Writer RuleWriter
}

// Export writes the header and one row per candidate.
func (e *TSVExporter) Export(ctx context.Context, r report.Report) error {
	if e.Writer == nil {
		return fmt.Errorf("tsv exporter: nil writer")
	}
	var b strings.Builder
	b.WriteString(TSVHeader)
	b.WriteByte('\n')
	for _, c := range r.Candidates {
		b.WriteString(TSVRow(c))
		b.WriteByte('\n')
	}
	return e.Writer.WriteRules(ctx, b.String())
}

// TSVRow renders one candidate without the trailing newline.
func TSVRow(c hint.Candidate) string {
	return fmt.Sprintf("%s\t%d\t%.0f\t%.0f\t%.2f\t%.2f\t%.0f",
		c.Rule, c.Size, c.PosEtls, c.NegEtls, c.FactCoverage, c.CompressionRatio, c.CompressionCapacity)
}

// JSONExporter writes the whole report as indented JSON.
type JSONExporter struct {
	Writer RuleWriter
}

// Export marshals r and hands it to the writer in one call.
func (e *JSONExporter) Export(ctx context.Context, r report.Report) error {
	if e.Writer == nil {
		return fmt.Errorf("json exporter: nil writer")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return e.Writer.WriteRules(ctx, string(data)+"\n")
}

// FileWriter replaces Path atomically: content goes to a temp file in the
// same directory which is then renamed over the target.
type FileWriter struct {
	Path string
}

// WriteRules replaces the file at Path with content. A concurrent reader sees
// either the old or the new file.
func (w FileWriter) WriteRules(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("rename to %s: %w", w.Path, err)
	}
	return nil
}

// DefaultPath is rules_<kb>.tsv next to the hint file.
func DefaultPath(hintFile, kbName, format string) string {
	ext := "tsv"
	if format == "json" {
		ext = "json"
	}
	return filepath.Join(filepath.Dir(hintFile), fmt.Sprintf("rules_%s.%s", kbName, ext))
}
