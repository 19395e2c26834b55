package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hawk/internal/app"
	"hawk/internal/config"
)

type toggleOptions struct {
	dir     string
	profile string
}

// newToggleCmd creates "enable" or "disable".
func newToggleCmd(g *globalOptions, enable bool) *cobra.Command {
	o := &toggleOptions{}
	verb, state := "disable", "disabled"
	if enable {
		verb, state = "enable", "enabled"
	}
	cmd := &cobra.Command{
		Use:   verb + " <type> <ref>",
		Short: fmt.Sprintf("Mark a component %s in a configuration layer", state),
		Long: fmt.Sprintf(`Add a component reference to the %s list of one configuration layer and
remove it from the opposite list of that layer.

The global config is edited unless --profile or --dir is given. --dir edits the
.hawk/config.yaml of a registered directory.

Types: skills, hooks, prompts, agents, mcp (singular forms are accepted).

Examples:
  hawk %s skill tidy
  hawk %s hook acme/block-secrets --profile work
  hawk %s mcp github --dir ~/src/api`, state, verb, verb, verb),
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, g, o, enable, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&o.dir, "dir", "", "Edit the layer of this registered directory")
	cmd.Flags().StringVar(&o.profile, "profile", "", "Edit this profile")
	cmd.MarkFlagsMutuallyExclusive("dir", "profile")
	return cmd
}

func runToggle(cmd *cobra.Command, g *globalOptions, o *toggleOptions, enable bool, typeArg, ref string) error {
	t, err := parseType(typeArg)
	if err != nil {
		return err
	}
	scope := app.LayerScope{Kind: config.KindGlobal}
	switch {
	case o.profile != "":
		scope = app.LayerScope{Kind: config.KindProfile, Name: o.profile}
	case o.dir != "":
		dir, err := resolveDir(o.dir)
		if err != nil {
			return err
		}
		scope = app.LayerScope{Kind: config.KindDirectory, Name: dir}
	}

	application, err := g.application(cmd)
	if err != nil {
		return err
	}
	path, changed, err := application.Services().SetEnabled(cmd.Context(), scope, t, ref, enable)
	if err != nil {
		return err
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	if !changed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is already %s in %s\n", t.Singular(), ref, state, path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s in %s (%s)\n", t.Singular(), ref, state, scope, path)
	return nil
}
