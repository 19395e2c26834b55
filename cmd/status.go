package cmd

import (
	"github.com/spf13/cobra"

	"hawk/internal/formatting"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	var output string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what hawk currently manages",
		Long: `List every (directory, tool) pair hawk has synced cleanly, with the number of
artifacts it manages there and when it last ran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := g.formatter(cmd, output, noHeaders)
			if err != nil {
				return err
			}
			application, err := g.application(cmd)
			if err != nil {
				return err
			}

			s := application.Services()
			global, _, err := s.Loader.Global()
			if err != nil {
				return err
			}
			entries, err := s.Cache.List()
			if err != nil {
				return err
			}
			return f.Status(formatting.Status{
				Home:        s.Home,
				Directories: global.Directories,
				Managed:     entries,
				Metrics:     s.Metrics.Summary(),
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Suppress header row in table output")
	return cmd
}
