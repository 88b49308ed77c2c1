package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/export"
	"github.com/cognicore/horn/pkg/horn/hint"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/monitor"
	"github.com/cognicore/horn/pkg/horn/report"
	"github.com/cognicore/horn/pkg/horn/rule"
	"github.com/cognicore/horn/pkg/horn/template"
)

type hintFlags struct {
	source          sourceFlags
	templateFile    string
	out             string
	format          string
	minCoverage     float64
	minRatio        float64
	maxFingerprints int
	metricsAddr     string
}

func newHintCmd(a *app) *cobra.Command {
	f := &hintFlags{}
	cmd := &cobra.Command{
		Use:   "hint",
		Short: "Ground rule templates against a knowledge base and export accepted rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHint(cmd, a, f)
		},
	}
	f.source.register(cmd)
	cmd.Flags().StringVarP(&f.templateFile, "template", "t", "", "hint file: thresholds then one template per line")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default: rules_<kb>.<format> next to the hint file)")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: tsv or json")
	cmd.Flags().Float64Var(&f.minCoverage, "min-coverage", 0, "override the hint file fact coverage threshold")
	cmd.Flags().Float64Var(&f.minRatio, "min-ratio", 0, "override the hint file compression ratio threshold")
	cmd.Flags().IntVar(&f.maxFingerprints, "max-fingerprints", 0, "cap on rules explored per head relation (0: unbounded)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while searching")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runHint(cmd *cobra.Command, a *app, f *hintFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	cfg := a.cfg

	hf, err := readHintFile(f.templateFile)
	if err != nil {
		return err
	}
	th := report.Thresholds{MinFactCoverage: hf.MinFactCoverage, MinCompressionRatio: hf.MinCompressionRatio}
	if cfg.Search.MinFactCoverage != nil {
		th.MinFactCoverage = *cfg.Search.MinFactCoverage
	}
	if cfg.Search.MinCompressionRatio != nil {
		th.MinCompressionRatio = *cfg.Search.MinCompressionRatio
	}
	if cmd.Flags().Changed("min-coverage") {
		th.MinFactCoverage = f.minCoverage
	}
	if cmd.Flags().Changed("min-ratio") {
		th.MinCompressionRatio = f.minRatio
	}
	if !cmd.Flags().Changed("max-fingerprints") {
		f.maxFingerprints = cfg.Search.MaxFingerprints
	}
	if f.format == "" {
		f.format = cfg.Output.Format
	}
	if f.out == "" {
		f.out = cfg.Output.Path
	}
	if f.metricsAddr == "" {
		f.metricsAddr = cfg.MetricsAddr
	}

	f.source.merge(a)
	k, err := f.source.load(ctx, a.log)
	if err != nil {
		return err
	}
	ev, err := f.source.evaluator(k)
	if err != nil {
		return err
	}

	timing := monitor.NewTiming()
	observers := rule.Observers{timing, monitor.NewLogObserver(a.log)}
	if f.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := monitor.NewMetricsObserver(reg)
		if err != nil {
			return err
		}
		observers = append(observers, m)
		shutdown, err := serveMetrics(f.metricsAddr, reg, a.log)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	h, err := hint.New(k, ev, hint.Options{
		MinFactCoverage:     th.MinFactCoverage,
		MinCompressionRatio: th.MinCompressionRatio,
		MaxFingerprints:     f.maxFingerprints,
		Logger:              a.log,
		Observer:            observers,
	})
	if err != nil {
		return err
	}
	cands, err := h.Run(ctx, hf.Templates)
	if err != nil {
		return err
	}

	texts := make([]string, len(hf.Templates))
	for i, t := range hf.Templates {
		texts[i] = t.Text
	}
	rep := report.New().Build(k.Name(), texts, th, cands, h.Stats())

	out := f.out
	if out == "" {
		out = export.DefaultPath(f.templateFile, k.Name(), f.format)
	}
	exp, err := export.New(f.format, export.FileWriter{Path: out})
	if err != nil {
		return err
	}
	if err := exp.Export(ctx, rep); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	a.log.Debug("pipeline timing\n" + timing.Summary())
	fmt.Fprintf(cmd.OutOrStdout(), "%d rules written to %s (report %s)\n", len(cands), out, rep.ID)
	return nil
}

func readHintFile(path string) (*template.HintFile, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: --template is required", internalerr.ErrInvalidInput)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hint file: %w", err)
	}
	defer file.Close()
	hf, err := template.ParseHintFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hf, nil
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
