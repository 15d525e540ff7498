package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	buildopts "github.com/goliatone/go-buildopts"
	"github.com/goliatone/go-buildopts/config"
	"github.com/spf13/cobra"
)

// app carries what the commands read from the process so tests can replace it.
type app struct {
	environ func() []string
	runner  buildopts.Runner

	configPath string
	dir        string
	pkg        string
	logLevel   string

	cfg      config.Config
	resolver *buildopts.Resolver
}

func defaultApp() *app {
	return &app{
		environ: os.Environ,
		runner:  buildopts.ExecRunner{},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "buildopts",
		Short:         "Resolve npm_config_* build options for meson and conan",
		Long:          "buildopts reads npm/xpm options from the environment and renders them as meson and conan arguments or through build script templates.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: .buildopts.yaml in --dir, then the user config)")
	root.PersistentFlags().StringVar(&a.dir, "dir", ".", "project directory")
	root.PersistentFlags().StringVar(&a.pkg, "package", "", "package name (default: name from package.json in --dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newMesonCmd(a))
	root.AddCommand(newConanCmd(a))
	root.AddCommand(newRenderCmd(a))
	return root
}

func (a *app) setup(stderr io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", a.logLevel)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	paths := config.DefaultPaths(a.dir)
	if a.configPath != "" {
		paths = []string{a.configPath}
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}
	opts = append(opts, buildopts.WithLogger(buildopts.NewSlogLogger(logger)))
	a.cfg = cfg
	a.resolver = buildopts.NewResolver(opts...)

	if a.pkg == "" {
		a.pkg, err = packageName(a.dir)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) env() buildopts.Environment {
	env := buildopts.Environment{}
	for _, kv := range a.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			env[key] = value
		}
	}
	return env
}

func (a *app) path() string {
	return a.env().Lookup("PATH")
}

// packageName reads the name field of package.json in dir. A directory without
// package.json has no package name.
func packageName(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return "", fmt.Errorf("parsing package.json: %w", err)
	}
	return manifest.Name, nil
}
