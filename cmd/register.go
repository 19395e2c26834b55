package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <dir>",
		Short: "Register a directory so its .hawk/config.yaml takes part in resolution",
		Long: `Add a directory to the global list of registered directories. Syncing from
the directory or anywhere below it then applies its .hawk/config.yaml and
writes into its project-level tool directories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := g.application(cmd)
			if err != nil {
				return err
			}
			dir, changed, err := application.Services().Register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already registered\n", dir)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", dir)
			return nil
		},
	}
}

func newUnregisterCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <dir>",
		Short: "Remove a directory from the registered directories",
		Long: `Remove a directory from the global list of registered directories. Its
.hawk/config.yaml is left in place; run "hawk sync" in the directory first
if its project-level outputs should be cleaned up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := g.application(cmd)
			if err != nil {
				return err
			}
			dir, changed, err := application.Services().Unregister(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", dir)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unregistered %s\n", dir)
			return nil
		},
	}
}
