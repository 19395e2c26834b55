package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hawk/internal/formatting"
)

func newCheckCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every configuration layer and registry entry",
		Long: `Parse the global config, every profile and every registered directory's
.hawk/config.yaml, and read the metadata of every registry entry. All problems
are reported at once; the command fails if any were found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := g.formatter(cmd, output, false)
			if err != nil {
				return err
			}
			application, err := g.application(cmd)
			if err != nil {
				return err
			}
			report, err := application.Services().Check(cmd.Context())
			if err != nil {
				return err
			}
			view := formatting.NewCheck(report.Layers, report.Components)
			if err := f.Check(view); err != nil {
				return err
			}
			if !view.OK() {
				return fmt.Errorf("check found %d problem(s)", len(view.Layers)+len(view.Components))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}
