package main

import (
	"encoding/json"
	"fmt"
	"os"

	buildopts "github.com/goliatone/go-buildopts"
	"github.com/goliatone/go-buildopts/tags"
	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		flagTool  string
		flagTrace bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <option>",
		Short: "Print the resolved value of an option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, ok := buildopts.ParseTool(flagTool)
			if !ok {
				return fmt.Errorf("unknown --tool %q", flagTool)
			}
			val, trace, err := a.resolver.ResolveWithTrace(a.pkg, a.env(), args[0], tool)
			if err != nil {
				return err
			}
			if flagTrace {
				payload, err := json.MarshalIndent(trace, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), val.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTool, "tool", "", "tool suffix: meson|conan")
	cmd.Flags().BoolVar(&flagTrace, "trace", false, "print per-tier provenance as JSON")
	return cmd
}

func newMesonCmd(a *app) *cobra.Command {
	var flagJSON bool
	cmd := &cobra.Command{
		Use:   "meson",
		Short: "Print -D arguments for the meson project in --dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := a.resolver.MesonBuildOptions(cmd.Context(), a.runner, a.dir, a.path())
			if err != nil {
				return err
			}
			tokens, err := a.resolver.MesonArgs(a.pkg, a.env(), options)
			if err != nil {
				return err
			}
			return printArgs(cmd, tokens, flagJSON)
		},
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print arguments as a JSON array")
	return cmd
}

func newConanCmd(a *app) *cobra.Command {
	var flagJSON bool
	cmd := &cobra.Command{
		Use:   "conan",
		Short: "Print -o and -s arguments for the conanfile.py in --dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := a.resolver.ConanBuildOptions(cmd.Context(), a.runner, a.dir, a.path())
			if err != nil {
				return err
			}
			tokens, err := a.resolver.ConanArgs(a.pkg, a.env(), options)
			if err != nil {
				return err
			}
			return printArgs(cmd, tokens, flagJSON)
		},
	}
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print arguments as a JSON array")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <template>",
		Short: "Render a build script template with the option tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reg := tags.Default(a.resolver, tags.Config{
				ProfilesDir: a.cfg.ProfilesDir,
				Runner:      a.runner,
			})
			out, err := reg.Render(cmd.Context(), string(raw), tags.RenderContext{
				Package: a.pkg,
				Env:     a.env(),
				Path:    a.path(),
				Dir:     a.dir,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func printArgs(cmd *cobra.Command, tokens []string, asJSON bool) error {
	if !asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), buildopts.JoinArgs(tokens))
		return nil
	}
	if tokens == nil {
		tokens = []string{}
	}
	payload, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}
