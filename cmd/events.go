package cmd

import (
	"github.com/spf13/cobra"

	"hawk/internal/events"
)

func newEventsCmd(g *globalOptions) *cobra.Command {
	var output string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show how each hook event maps onto every tool",
		Long: `Print the event contract: for each canonical hook event, the native event a
tool uses for it, the mechanism it is bridged through, or "-" when the tool
cannot run it. Hooks bound to an unsupported event are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := g.formatter(cmd, output, noHeaders)
			if err != nil {
				return err
			}
			return f.Events(events.Table())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Suppress header row in table output")
	return cmd
}
