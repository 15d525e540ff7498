// Package config loads buildopts settings from YAML files layered over the
// built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	buildopts "github.com/goliatone/go-buildopts"
	"github.com/goliatone/go-buildopts/layering"
	"github.com/goliatone/go-buildopts/pkg/activity"
	"gopkg.in/yaml.v3"
)

// LocalFileName is looked up in the project directory.
const LocalFileName = ".buildopts.yaml"

// Config holds the settings a Resolver and the template tags are built from.
type Config struct {
	Prefix         string                  `yaml:"prefix"`
	VerbosityKey   string                  `yaml:"verbosity_key"`
	Quote          string                  `yaml:"quote"`
	MesonBlacklist []string                `yaml:"meson_blacklist"`
	Equivalences   []buildopts.Equivalence `yaml:"equivalences"`
	Engine         string                  `yaml:"engine"`
	ProfilesDir    string                  `yaml:"profiles_dir"`
	Activity       Activity                `yaml:"activity"`
}

// Activity toggles activity events.
type Activity struct {
	Enabled *bool  `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

// Defaults mirrors a Resolver built without options.
func Defaults() Config {
	enabled := true
	return Config{
		Prefix:         buildopts.DefaultPrefix,
		VerbosityKey:   buildopts.DefaultVerbosityKey,
		Quote:          buildopts.DefaultQuote(),
		MesonBlacklist: buildopts.DefaultMesonBlacklist(),
		Equivalences:   buildopts.DefaultEquivalences(),
		Engine:         buildopts.EngineExpr,
		Activity:       Activity{Enabled: &enabled, Channel: activity.DefaultChannel},
	}
}

// DefaultPaths returns the project file in dir followed by the user file under
// the user config directory, strongest first.
func DefaultPaths(dir string) []string {
	paths := []string{filepath.Join(dir, LocalFileName)}
	if base, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(base, "buildopts", "config.yaml"))
	}
	return paths
}

// Load reads paths, strongest first, and merges them over Defaults. Missing
// files are skipped.
func Load(paths ...string) (Config, error) {
	layers := make([]Config, 0, len(paths)+1)
	for _, path := range paths {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		layer, err := Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
		layers = append(layers, layer)
	}
	layers = append(layers, Defaults())
	return layering.MergeLayers(layers...), nil
}

// Parse decodes one YAML document. Unknown keys are rejected.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// ResolverOptions converts the configuration into Resolver options.
func (c Config) ResolverOptions() ([]buildopts.Option, error) {
	evaluator, err := buildopts.NewEvaluator(c.Engine, buildopts.NewMemoryProgramCache(), nil)
	if err != nil {
		return nil, fmt.Errorf("config: engine: %w", err)
	}
	enabled := c.Activity.Enabled == nil || *c.Activity.Enabled
	return []buildopts.Option{
		buildopts.WithPrefix(c.Prefix),
		buildopts.WithVerbosityKey(c.VerbosityKey),
		buildopts.WithQuote(c.Quote),
		buildopts.WithMesonBlacklist(c.MesonBlacklist...),
		buildopts.WithEquivalences(c.Equivalences...),
		buildopts.WithEvaluator(evaluator),
		buildopts.WithActivityConfig(activity.Config{
			Enabled: enabled,
			Channel: c.Activity.Channel,
		}),
	}, nil
}
