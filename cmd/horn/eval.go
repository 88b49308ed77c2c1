package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/export"
	"github.com/cognicore/horn/pkg/horn/hint"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		source sourceFlags
		text   string
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a single rule against a knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("%w: --rule is required", internalerr.ErrInvalidInput)
			}
			source.merge(a)
			k, err := source.load(cmd.Context(), a.log)
			if err != nil {
				return err
			}
			ev, err := source.evaluator(k)
			if err != nil {
				return err
			}
			c, err := hint.Score(k, ev, text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, export.TSVHeader)
			fmt.Fprintln(out, export.TSVRow(c))
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().StringVarP(&text, "rule", "r", "", "rule text, e.g. parent(X,Y):-father(X,Y)")
	return cmd
}
