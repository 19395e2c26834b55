package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd(g *globalOptions) *cobra.Command {
	var scrub bool
	cmd := &cobra.Command{
		Use:   "remove <type> <ref>",
		Short: "Delete a component from the registry",
		Long: `Delete a component from the registry.

hawk refuses while any configuration layer (global, a profile or a registered
directory) still names the component. With --scrub those references are
removed from every layer first. Run "hawk sync" afterwards to remove the
component from tool directories.

Examples:
  hawk remove skill tidy
  hawk remove hook acme/block-secrets --scrub`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			application, err := g.application(cmd)
			if err != nil {
				return err
			}
			res, err := application.Services().Remove(cmd.Context(), t, args[1], scrub)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range res.Scrubbed {
				fmt.Fprintf(out, "Removed references from %s\n", path)
			}
			fmt.Fprintf(out, "Removed %s %s (%s)\n", t.Singular(), res.Identity, res.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&scrub, "scrub", false, "Also remove every reference from configuration layers")
	return cmd
}
