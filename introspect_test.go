package buildopts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type fakeRunner struct {
	stdout, stderr string
	err            error
	calls          [][]string
	dirs           []string
	paths          []string
}

func (f *fakeRunner) Run(_ context.Context, dir, path, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, dir)
	f.paths = append(f.paths, path)
	return []byte(f.stdout), []byte(f.stderr), f.err
}

const mesonIntrospection = `{"buildoptions": [
	{"name": "prefix", "value": "/usr/local", "section": "directory", "machine": "any", "type": "string", "description": "Installation prefix"},
	{"name": "backend", "value": "ninja", "section": "core", "machine": "any", "type": "combo", "choices": ["ninja", "vs"]},
	{"name": "fonts", "value": true, "section": "user", "machine": "any", "type": "boolean", "description": "Enable fonts"}
]}`

func TestMesonBuildOptions(t *testing.T) {
	runner := &fakeRunner{stdout: mesonIntrospection}
	opts, err := quietResolver().MesonBuildOptions(context.Background(), runner, "/src/magick", "/xpacks/bin")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	wantCall := []string{"meson", "introspect", "--buildoptions", "meson.build", "-f"}
	if len(runner.calls) != 1 || !reflect.DeepEqual(runner.calls[0], wantCall) {
		t.Fatalf("unexpected call %v", runner.calls)
	}
	if runner.dirs[0] != "/src/magick" || runner.paths[0] != "/xpacks/bin" {
		t.Fatalf("unexpected dir/path %v %v", runner.dirs, runner.paths)
	}
	var names []string
	for _, opt := range opts {
		names = append(names, opt.Name+":"+opt.Type)
	}
	if !reflect.DeepEqual(names, []string{"prefix:string", "backend:combo", "fonts:boolean"}) {
		t.Fatalf("unexpected options %v", names)
	}
	if !reflect.DeepEqual(opts[1].Choices, []any{"ninja", "vs"}) {
		t.Fatalf("unexpected choices %#v", opts[1].Choices)
	}
}

func TestMesonBuildOptionsMissingKey(t *testing.T) {
	_, err := quietResolver().MesonBuildOptions(context.Background(), &fakeRunner{stdout: `{"targets": []}`}, ".", "")
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.Op != "parse" {
		t.Fatalf("expected parse failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "buildoptions") {
		t.Fatalf("error should name the missing key: %v", err)
	}
}

func TestMesonBuildOptionsToolFailure(t *testing.T) {
	runner := &fakeRunner{
		stdout: "partial",
		stderr: "ERROR: Current directory is not a meson build directory.",
		err:    errors.New("exit status 1"),
	}
	var logged []ResolutionEvent
	r := NewResolver(WithLogger(LoggerFunc(func(e ResolutionEvent) { logged = append(logged, e) })))
	_, err := r.MesonBuildOptions(context.Background(), runner, ".", "")
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ExternalToolError, got %v", err)
	}
	if toolErr.Tool != ToolMeson || toolErr.Stdout != "partial" || !strings.Contains(toolErr.Stderr, "not a meson build directory") {
		t.Fatalf("output not captured: %+v", toolErr)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("failures must not be retried, got %d calls", len(runner.calls))
	}
	if len(logged) != 1 || logged[0].Stage != StageTool || logged[0].Err == nil {
		t.Fatalf("failure should be logged, got %+v", logged)
	}
}

func TestConanBuildOptionsWithoutConanfile(t *testing.T) {
	runner := &fakeRunner{}
	opts, err := quietResolver().ConanBuildOptions(context.Background(), runner, t.TempDir(), "")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	if len(opts) != 0 || len(runner.calls) != 0 {
		t.Fatalf("expected no options and no conan run, got %v %v", opts, runner.calls)
	}
}

func TestConanBuildOptions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conanfile.py"), []byte("# recipe\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := &fakeRunner{stdout: `{
		"name": "magick",
		"options": {"shared": "False"},
		"options_definitions": {
			"shared": ["True", "False"],
			"fPIC": ["True", "False"],
			"simd": ["sse", "avx", null],
			"jobs": [1, 2]
		},
		"settings": ["os", "arch"]
	}`}
	opts, err := quietResolver().ConanBuildOptions(context.Background(), runner, dir, "")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	want := ConanOptions{
		{Name: "shared", Values: []string{"True", "False"}},
		{Name: "fPIC", Values: []string{"True", "False"}},
		{Name: "simd", Values: []string{"sse", "avx", "None"}},
		{Name: "jobs", Values: []string{"1", "2"}},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Fatalf("got %+v", opts)
	}
	if !reflect.DeepEqual(runner.calls[0], []string{"conan", "inspect", "-f", "json", "."}) {
		t.Fatalf("unexpected call %v", runner.calls[0])
	}
}

func TestDecodeConanOptionsKeepsOrder(t *testing.T) {
	opts, err := DecodeConanOptions([]byte(`{"options_definitions":{"z":["True"],"a":["True"],"m":["x"]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(opts.Names(), []string{"z", "a", "m"}) {
		t.Fatalf("order lost: %v", opts.Names())
	}
}

func TestDecodeConanOptionsErrors(t *testing.T) {
	for _, raw := range []string{
		`{"name":"magick"}`,
		`[]`,
		``,
		`{"options_definitions": {"shared": "True"}}`,
	} {
		if _, err := DecodeConanOptions([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	opts, err := DecodeConanOptions([]byte(`{"options_definitions": null}`))
	if err != nil || len(opts) != 0 {
		t.Fatalf("null definitions: %v %v", opts, err)
	}
}

func TestWithPath(t *testing.T) {
	got := withPath([]string{"HOME=/root", "PATH=/usr/bin", "LANG=C"}, "/xpacks/bin")
	want := []string{"HOME=/root", "LANG=C", "PATH=/xpacks/bin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
	same := []string{"PATH=/usr/bin"}
	if !reflect.DeepEqual(withPath(same, ""), same) {
		t.Fatalf("empty path must keep the environment")
	}
}

func TestConanBuildOptionsStatFailure(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "recipe")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := &fakeRunner{}
	_, err := quietResolver().ConanBuildOptions(context.Background(), runner, notADir, "")
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.Op != "stat" {
		t.Fatalf("expected stat error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("conan must not run, got %v", runner.calls)
	}
}

func TestDecodeConanOptionsLiterals(t *testing.T) {
	opts, err := DecodeConanOptions([]byte(`{"options_definitions":{"shared":[true,false],"n":[10000000,1.5]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ConanOptions{
		{Name: "shared", Values: []string{"True", "False"}},
		{Name: "n", Values: []string{"10000000", "1.5"}},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Fatalf("got %+v", opts)
	}
}
