package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/horn/pkg/horn/config"
)

// app carries the state shared by every subcommand after the persistent
// pre-run.
type app struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "horn",
		Short:         "Template-guided Horn rule discovery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg

			zc := zap.NewProductionConfig()
			level, err := zapcore.ParseLevel(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			if a.verbose {
				level = zapcore.DebugLevel
			}
			zc.Level = zap.NewAtomicLevelAt(level)
			a.log, err = zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newHintCmd(a), newImportCmd(a), newEvalCmd(a))
	return root
}
