package cmd

import (
	"github.com/spf13/cobra"

	"hawk/internal/events"
	"hawk/internal/formatting"
)

type resolveOptions struct {
	dir    string
	tools  []string
	output string
}

func newResolveCmd(g *globalOptions) *cobra.Command {
	o := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the components each tool would receive for a directory",
		Long: `Fold the global, profile and directory layers for a directory and print the
effective component set of each tool, without touching any tool directory.

Examples:
  hawk resolve
  hawk resolve --dir ~/src/api --tool codex -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, g, o)
		},
	}
	cmd.Flags().StringVar(&o.dir, "dir", "", "Directory to resolve (default: working directory)")
	cmd.Flags().StringSliceVar(&o.tools, "tool", nil, "Only show these tools")
	cmd.Flags().StringVarP(&o.output, "output", "o", "table", "Output format (table, wide, json, yaml)")
	return cmd
}

func runResolve(cmd *cobra.Command, g *globalOptions, o *resolveOptions) error {
	if err := validateTools(o.tools); err != nil {
		return err
	}
	f, err := g.formatter(cmd, o.output, false)
	if err != nil {
		return err
	}
	dir, err := resolveDir(o.dir)
	if err != nil {
		return err
	}
	application, err := g.application(cmd)
	if err != nil {
		return err
	}

	s := application.Services()
	layers, err := s.Loader.Load(cmd.Context(), dir)
	if err != nil {
		return err
	}
	rs, err := s.Resolver.Resolve(cmd.Context(), layers)
	if err != nil {
		return err
	}

	tools := o.tools
	if len(tools) == 0 {
		tools = events.Tools()
	}
	return f.Resolved(formatting.NewResolved(rs, tools))
}
