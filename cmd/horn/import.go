package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/kb/sqlite"
)

func newImportCmd(a *app) *cobra.Command {
	var facts, db string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a text fact file into a sqlite knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if facts == "" || db == "" {
				return fmt.Errorf("%w: --facts and --db are required", internalerr.ErrInvalidInput)
			}
			in, err := os.Open(facts)
			if err != nil {
				return fmt.Errorf("open facts: %w", err)
			}
			defer in.Close()

			st, err := sqlite.OpenSQLite(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := kb.ImportFacts(cmd.Context(), in, st)
			if err != nil {
				return fmt.Errorf("%s: %w", facts, err)
			}
			a.log.Info("facts imported", zap.String("db", db), zap.Int("added", n))
			fmt.Fprintf(cmd.OutOrStdout(), "%d facts added to %s\n", n, db)
			return nil
		},
	}
	cmd.Flags().StringVar(&facts, "facts", "", "text fact file")
	cmd.Flags().StringVar(&db, "db", "", "sqlite knowledge base")
	return cmd
}
