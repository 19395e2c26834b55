package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"hawk/internal/reconciler"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a hard failure (invalid arguments, failed sync, failed edit).
	ExitCodeError = 1
	// ExitCodeWarnings indicates the command completed but reported warnings.
	ExitCodeWarnings = 2
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	home     string
	debug    bool
	logLevel string
	quiet    bool
	noColor  bool
}

// rootCmd represents the base command for the hawk application.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "hawk",
		Short: "Manage skills, hooks, prompts, agents and MCP servers for AI coding tools",
		Long: `hawk keeps one registry of reusable components and decides, from layered
configuration (global, profiles and per-directory .hawk/config.yaml), which of
them each AI coding tool should see. It then syncs them into the claude, codex
and gemini configuration directories, leaving anything it does not manage alone.`,
		// Errors are printed by Execute so warnings can exit non-zero quietly.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.home, "home", "", "hawk home directory (env: HAWK_HOME, default ~/.config/hawk)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress logs and progress output")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newVersionCmd(),
		newSyncCmd(opts),
		newResolveCmd(opts),
		newStatusCmd(opts),
		newEventsCmd(opts),
		newToggleCmd(opts, true),
		newToggleCmd(opts, false),
		newRegisterCmd(opts),
		newUnregisterCmd(opts),
		newRemoveCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "hawk version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		var se *statusError
		if !errors.As(err, &se) || se.status == reconciler.StatusFailure {
			fmt.Fprintf(os.Stderr, "%s %v\n", text.FgRed.Sprint("Error:"), err)
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error returned by a command to the process exit code.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var se *statusError
	if errors.As(err, &se) && se.status == reconciler.StatusWarnings {
		return ExitCodeWarnings
	}
	return ExitCodeError
}

// statusError carries a non-success sync outcome out of a command. The
// result itself has already been printed.
type statusError struct {
	status reconciler.ExitStatus
}

func (e *statusError) Error() string {
	if e.status == reconciler.StatusWarnings {
		return "completed with warnings"
	}
	return "sync did not complete, see the errors above"
}

// errorForStatus returns nil for success and a *statusError otherwise.
func errorForStatus(s reconciler.ExitStatus) error {
	if s == reconciler.StatusSuccess {
		return nil
	}
	return &statusError{status: s}
}

// worse returns the more severe of two statuses.
func worse(a, b reconciler.ExitStatus) reconciler.ExitStatus {
	rank := map[reconciler.ExitStatus]int{
		reconciler.StatusSuccess:  0,
		reconciler.StatusWarnings: 1,
		reconciler.StatusFailure:  2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
