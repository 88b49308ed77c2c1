package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/eval/datalog"
	"github.com/cognicore/horn/pkg/horn/eval/entail"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/kb/memstore"
	"github.com/cognicore/horn/pkg/horn/kb/sqlite"
)

// sourceFlags select the knowledge base. Flags win over the config file.
type sourceFlags struct {
	facts   string
	db      string
	name    string
	backend string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.facts, "facts", "", "text fact file")
	cmd.Flags().StringVar(&s.db, "db", "", "sqlite knowledge base")
	cmd.Flags().StringVar(&s.name, "kb-name", "", "knowledge base name (default: source file name)")
	cmd.Flags().StringVar(&s.backend, "backend", "", "evaluation backend: native or datalog")
}

func (s *sourceFlags) merge(a *app) {
	if s.facts == "" && s.db == "" {
		s.facts, s.db = a.cfg.KB.Facts, a.cfg.KB.DB
	}
	if s.name == "" {
		s.name = a.cfg.KB.Name
	}
	if s.backend == "" {
		s.backend = a.cfg.Search.Backend
	}
}

func (s *sourceFlags) load(ctx context.Context, log *zap.Logger) (*kb.KB, error) {
	switch {
	case s.facts != "" && s.db != "":
		return nil, fmt.Errorf("%w: --facts and --db are mutually exclusive", internalerr.ErrInvalidInput)
	case s.db != "":
		st, err := sqlite.OpenSQLite(ctx, s.db)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return s.numerate(ctx, log, st, s.db)
	case s.facts != "":
		f, err := os.Open(s.facts)
		if err != nil {
			return nil, fmt.Errorf("open facts: %w", err)
		}
		defer f.Close()
		st := memstore.New()
		if _, err := kb.ImportFacts(ctx, f, st); err != nil {
			return nil, fmt.Errorf("%s: %w", s.facts, err)
		}
		return s.numerate(ctx, log, st, s.facts)
	default:
		return nil, fmt.Errorf("%w: one of --facts or --db is required", internalerr.ErrInvalidInput)
	}
}

func (s *sourceFlags) numerate(ctx context.Context, log *zap.Logger, st kb.Store, path string) (*kb.KB, error) {
	name := s.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	k, err := kb.Load(ctx, st, name)
	if err != nil {
		return nil, err
	}
	log.Info("knowledge base loaded",
		zap.String("kb", k.Name()),
		zap.Int("relations", len(k.Relations())),
		zap.Int("records", k.TotalRecords()),
		zap.Int("constants", k.ConstantCount()),
	)
	return k, nil
}

func (s *sourceFlags) evaluator(k *kb.KB) (*entail.Evaluator, error) {
	switch s.backend {
	case "", "native":
		return entail.New(k), nil
	case "datalog":
		return entail.New(k, entail.WithProjector(datalog.New(k))), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", internalerr.ErrInvalidInput, s.backend)
	}
}
