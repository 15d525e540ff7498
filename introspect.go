package buildopts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-buildopts/internal/hydrate"
)

// Runner executes a build tool in dir with PATH set to path.
type Runner interface {
	Run(ctx context.Context, dir, path, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec, inheriting the process environment.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, path, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = withPath(os.Environ(), path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func withPath(environ []string, path string) []string {
	if path == "" {
		return environ
	}
	out := make([]string, 0, len(environ)+1)
	for _, kv := range environ {
		if strings.HasPrefix(kv, "PATH=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+path)
}

type mesonListing struct {
	BuildOptions []MesonOption `json:"buildoptions"`
}

var mesonIntrospectArgs = []string{"introspect", "--buildoptions", "meson.build", "-f"}

// MesonBuildOptions asks meson for the options declared by the project in dir.
func (r *Resolver) MesonBuildOptions(ctx context.Context, runner Runner, dir, path string) ([]MesonOption, error) {
	stdout, err := r.runTool(ctx, runner, ToolMeson, dir, path, "meson", mesonIntrospectArgs...)
	if err != nil {
		return nil, err
	}
	decoder := hydrate.NewDecoder[mesonListing](
		hydrate.WithRequiredKeys[mesonListing]("buildoptions"),
	)
	listing, err := decoder.DecodeJSON(hydrate.Context{Tool: string(ToolMeson), Dir: dir}, stdout)
	if err != nil {
		return nil, &ExternalToolError{
			Tool:   ToolMeson,
			Op:     "parse",
			Cmd:    commandLine("meson", mesonIntrospectArgs),
			Stdout: string(stdout),
			Err:    err,
		}
	}
	return listing.BuildOptions, nil
}

var conanInspectArgs = []string{"inspect", "-f", "json", "."}

// ConanBuildOptions asks conan for the options declared by the conanfile.py in
// dir. A directory without conanfile.py has no conan options.
func (r *Resolver) ConanBuildOptions(ctx context.Context, runner Runner, dir, path string) (ConanOptions, error) {
	recipe := filepath.Join(dir, "conanfile.py")
	if _, err := os.Stat(recipe); errors.Is(err, fs.ErrNotExist) {
		r.logger().LogResolution(ResolutionEvent{
			Stage:   StageTool,
			Message: "No conanfile.py found, assuming no conan options available",
		})
		return ConanOptions{}, nil
	} else if err != nil {
		return nil, &ExternalToolError{Tool: ToolConan, Op: "stat", Cmd: recipe, Err: err}
	}
	stdout, err := r.runTool(ctx, runner, ToolConan, dir, path, "conan", conanInspectArgs...)
	if err != nil {
		return nil, err
	}
	options, err := DecodeConanOptions(stdout)
	if err != nil {
		return nil, &ExternalToolError{
			Tool:   ToolConan,
			Op:     "parse",
			Cmd:    commandLine("conan", conanInspectArgs),
			Stdout: string(stdout),
			Err:    err,
		}
	}
	return options, nil
}

func (r *Resolver) runTool(ctx context.Context, runner Runner, tool Tool, dir, path, name string, args ...string) ([]byte, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, dir, path, name, args...)
	if err != nil {
		toolErr := &ExternalToolError{
			Tool:   tool,
			Op:     "introspect",
			Cmd:    commandLine(name, args),
			Stdout: string(stdout),
			Stderr: string(stderr),
			Err:    err,
		}
		r.logger().LogResolution(ResolutionEvent{
			Stage:   StageTool,
			Message: fmt.Sprintf("Failed getting options from %s", tool),
			Err:     toolErr,
		})
		return nil, toolErr
	}
	return stdout, nil
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// DecodeConanOptions reads the options_definitions object of `conan inspect -f
// json` keeping the declaration order. Allowed values are reported the way
// conan prints them: null as "None", booleans as "True"/"False" and numbers
// verbatim.
func DecodeConanOptions(raw []byte) (ConanOptions, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "options_definitions" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		return decodeDefinitions(dec)
	}
	return nil, errors.New(`conan output has no "options_definitions"`)
}

func decodeDefinitions(dec *json.Decoder) (ConanOptions, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return ConanOptions{}, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("options_definitions: unexpected %v", tok)
	}
	options := ConanOptions{}
	for dec.More() {
		name, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var values []any
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("options_definitions.%s: %w", name, err)
		}
		allowed := make([]string, 0, len(values))
		for _, v := range values {
			switch v := v.(type) {
			case nil:
				allowed = append(allowed, "None")
			case bool:
				allowed = append(allowed, pythonBool(v))
			default:
				allowed = append(allowed, fmt.Sprint(v))
			}
		}
		options = append(options, ConanOption{Name: name, Values: allowed})
	}
	return options, expectDelim(dec, '}')
}

func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}
