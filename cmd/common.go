package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hawk/internal/app"
	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/events"
	"hawk/internal/formatting"
)

// application bootstraps hawk for one command invocation.
func (o *globalOptions) application(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(o.debug, o.quiet, o.home)
	cfg.LogLevel = o.logLevel
	cfg.LogOutput = cmd.ErrOrStderr()
	return app.NewApplication(cfg)
}

// formatter creates the output formatter for an --output value.
func (o *globalOptions) formatter(cmd *cobra.Command, output string, noHeaders bool) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(output)
	if err != nil {
		return nil, err
	}
	return formatting.New(cmd.OutOrStdout(), formatting.Options{
		Format:    format,
		NoHeaders: noHeaders,
		Color:     !o.noColor && isTerminal(cmd.OutOrStdout()),
	}), nil
}

// progress starts a spinner on stderr when it is a terminal. The returned
// function stops it.
func (o *globalOptions) progress(cmd *cobra.Command, suffix string) func() {
	w := cmd.ErrOrStderr()
	if o.quiet || o.debug || !isTerminal(w) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveDir turns a --dir value into an absolute path, defaulting to the
// working directory.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		return wd, nil
	}
	expanded, err := config.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// parseType accepts the plural type key or its singular form.
func parseType(s string) (component.Type, error) {
	if t, err := component.ParseType(s); err == nil {
		return t, nil
	}
	return component.ParseType(s + "s")
}

// validateTools rejects tool names outside the event contract.
func validateTools(tools []string) error {
	for _, t := range tools {
		if !events.IsKnownTool(t) {
			return fmt.Errorf("unknown tool %q (valid: %v)", t, events.Tools())
		}
	}
	return nil
}

// completeTypes offers component types for the first positional argument.
func completeTypes(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, t := range component.AllTypes() {
		out = append(out, string(t))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
