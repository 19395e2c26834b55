package cmd

import (
	"github.com/spf13/cobra"

	"hawk/internal/reconciler"
	"hawk/pkg/logging"
)

type syncOptions struct {
	dir     string
	tools   []string
	all     bool
	dryRun  bool
	verbose bool
	force   bool
	watch   bool
	output  string
}

func newSyncCmd(g *globalOptions) *cobra.Command {
	o := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync enabled components into the tools' configuration directories",
		Long: `Resolve the configuration that applies to a directory and make every enabled
tool's configuration directory match it.

Components are linked from the registry; hook wiring and MCP servers are merged
into the tool's own settings file. Files hawk did not create are reported as
conflicts and never touched.

Without --dir the working directory is used. A registered directory (or one
below it) syncs into the project-level directory, e.g. <repo>/.claude; any
other directory syncs into the user-level one, e.g. ~/.claude.

Examples:
  hawk sync
  hawk sync --tool claude --dry-run -v
  hawk sync --all
  hawk sync --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.dir, "dir", "", "Directory whose configuration is synced (default: working directory)")
	f.StringSliceVar(&o.tools, "tool", nil, "Restrict the sync to these tools (claude, codex, gemini)")
	f.BoolVar(&o.all, "all", false, "Sync every registered directory")
	f.BoolVar(&o.dryRun, "dry-run", false, "Show what would change without writing")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "List every artifact (and diffs with --dry-run)")
	f.BoolVar(&o.force, "force", false, "Ignore the sync cache")
	f.BoolVar(&o.watch, "watch", false, "Keep running and re-sync when configuration or the registry changes")
	f.StringVarP(&o.output, "output", "o", "table", "Output format (table, wide, json, yaml)")
	cmd.MarkFlagsMutuallyExclusive("all", "dir")
	cmd.MarkFlagsMutuallyExclusive("all", "watch")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "watch")
	_ = cmd.RegisterFlagCompletionFunc("tool", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"claude", "codex", "gemini"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSync(cmd *cobra.Command, g *globalOptions, o *syncOptions) error {
	if err := validateTools(o.tools); err != nil {
		return err
	}
	f, err := g.formatter(cmd, o.output, false)
	if err != nil {
		return err
	}
	application, err := g.application(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	req := reconciler.SyncRequest{
		Tools:   o.tools,
		DryRun:  o.dryRun,
		Verbose: o.verbose,
		Force:   o.force,
	}

	if o.all {
		stop := g.progress(cmd, "Syncing registered directories...")
		results, syncErr := application.Services().SyncAll(ctx, req)
		stop()

		status := reconciler.StatusSuccess
		for _, res := range results {
			if err := f.SyncResult(res); err != nil {
				return err
			}
			status = worse(status, res.ExitStatus())
		}
		if syncErr != nil {
			return syncErr
		}
		return errorForStatus(status)
	}

	req.Dir, err = resolveDir(o.dir)
	if err != nil {
		return err
	}

	if o.watch {
		metrics := application.Services().Metrics
		err := application.RunWatch(ctx, req, func(res *reconciler.SyncResult, err error) {
			if err != nil {
				logging.Error("Sync", err, "Sync of %s failed", req.Dir)
				return
			}
			if err := f.SyncResult(res); err != nil {
				logging.Error("Sync", err, "Failed to print result")
			}
		})
		s := metrics.Summary()
		logging.Info("Sync", "%d run(s), %d cached, %d failed", s.TotalRuns, s.TotalCacheHits, s.TotalFailures)
		return err
	}

	stop := g.progress(cmd, "Syncing "+req.Dir+"...")
	res, err := application.RunOnce(ctx, req)
	stop()
	if err != nil {
		return err
	}
	if err := f.SyncResult(res); err != nil {
		return err
	}
	return errorForStatus(res.ExitStatus())
}
