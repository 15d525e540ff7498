// Package tags exposes option resolution to build scripts rendered with
// text/template. Each tag is a template function bound to the package and
// environment of a single render.
package tags

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"text/template"

	buildopts "github.com/goliatone/go-buildopts"
	"github.com/goliatone/go-buildopts/pkg/activity"
	"github.com/google/uuid"
)

// RenderContext carries what a render knows about the package being built.
type RenderContext struct {
	Package string
	Env     buildopts.Environment
	// Path is the PATH used when running meson or conan.
	Path string
	// Dir is the project directory introspected by the build tools.
	Dir string
}

// Config configures the default tags.
type Config struct {
	ProfilesDir string
	Runner      buildopts.Runner
}

// Builder returns the template function for a render.
type Builder func(ctx context.Context, rc RenderContext) any

// Registry holds named tag builders.
type Registry struct {
	resolver *buildopts.Resolver
	builders map[string]Builder
}

// New returns an empty registry bound to resolver.
func New(resolver *buildopts.Resolver) *Registry {
	if resolver == nil {
		resolver = buildopts.NewResolver()
	}
	return &Registry{
		resolver: resolver,
		builders: map[string]Builder{},
	}
}

// Register adds or replaces the tag name.
func (r *Registry) Register(name string, builder Builder) {
	r.builders[name] = builder
}

// Names lists registered tags sorted by name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncMap builds the template functions for one render.
func (r *Registry) FuncMap(ctx context.Context, rc RenderContext) template.FuncMap {
	funcs := template.FuncMap{}
	for name, builder := range r.builders {
		if builder == nil {
			continue
		}
		funcs[name] = builder(ctx, rc)
	}
	return funcs
}

// Render executes text as a template with the registry functions and rc as
// data.
func (r *Registry) Render(ctx context.Context, text string, rc RenderContext) (string, error) {
	tpl, err := template.New("buildopts").Funcs(r.FuncMap(ctx, rc)).Parse(text)
	if err != nil {
		return "", fmt.Errorf("tags: parse template: %w", err)
	}
	var out bytes.Buffer
	if err := tpl.Execute(&out, rc); err != nil {
		return "", fmt.Errorf("tags: render template: %w", err)
	}
	r.resolver.Emit(ctx, activity.BuildTemplateRenderedEvent(activity.ArgsEventInput{
		RenderID: uuid.NewString(),
		Package:  rc.Package,
		Tool:     "template",
		Metadata: map[string]any{"bytes": out.Len()},
	}))
	return out.String(), nil
}

// Default returns a registry with every build option tag registered.
func Default(resolver *buildopts.Resolver, cfg Config) *Registry {
	r := New(resolver)
	res := r.resolver
	profiles := cfg.ProfilesDir
	if profiles == "" {
		profiles = DefaultProfilesDir()
	}

	r.Register("mesonOptions", func(ctx context.Context, rc RenderContext) any {
		return func() (string, error) {
			opts, err := res.MesonBuildOptions(ctx, cfg.Runner, rc.Dir, rc.Path)
			if err != nil {
				return "", err
			}
			return res.MesonOptions(rc.Package, rc.Env, opts)
		}
	})
	r.Register("conanOptions", func(ctx context.Context, rc RenderContext) any {
		return func() (string, error) {
			opts, err := res.ConanBuildOptions(ctx, cfg.Runner, rc.Dir, rc.Path)
			if err != nil {
				return "", err
			}
			return res.ConanOptionsString(rc.Package, rc.Env, opts)
		}
	})
	r.Register("ifNpmOption", func(_ context.Context, rc RenderContext) any {
		return func(name string) (bool, error) {
			return res.OptionEnabled(rc.Package, rc.Env, name)
		}
	})
	r.Register("unlessNpmOption", func(_ context.Context, rc RenderContext) any {
		return func(name string) (bool, error) {
			return res.OptionDisabled(rc.Package, rc.Env, name)
		}
	})
	r.Register("npmOption", func(_ context.Context, rc RenderContext) any {
		return func(name string) (string, error) {
			val, err := res.Resolve(rc.Package, rc.Env, name, buildopts.ToolNone)
			if err != nil || val.IsAbsent() {
				return "", err
			}
			return val.String(), nil
		}
	})
	r.Register("npmCondition", func(_ context.Context, rc RenderContext) any {
		return func(expr string) (bool, error) {
			return res.Condition(rc.Package, rc.Env, expr)
		}
	})
	r.Register("mesonProfiles", func(context.Context, RenderContext) any {
		return func() string { return filepath.Join(profiles, "meson") }
	})
	r.Register("conanProfiles", func(context.Context, RenderContext) any {
		return func() string { return filepath.Join(profiles, "conan") }
	})
	r.Register("mesonProfile", func(context.Context, RenderContext) any {
		return func(args ...string) string {
			return MesonProfile(profiles, args...)
		}
	})
	return r
}

// MesonProfile returns the meson cross/native file for toolchain and platform.
// Arguments are toolchain, flavor and platform, defaulting to "system",
// "async" and the host OS. The flavor does not change the file name.
func MesonProfile(profilesDir string, args ...string) string {
	toolchain, platform := "system", runtime.GOOS
	if len(args) > 0 && args[0] != "" {
		toolchain = args[0]
	}
	if len(args) > 2 && args[2] != "" {
		platform = args[2]
	}
	return filepath.Join(profilesDir, "meson", toolchain+"-"+platform+".ini")
}

// DefaultProfilesDir is the directory holding the shipped meson and conan
// profiles: the parent of the executable's directory, or "." when unknown.
func DefaultProfilesDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(filepath.Dir(exe))
}
