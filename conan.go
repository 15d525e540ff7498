package buildopts

import (
	"fmt"

	"github.com/thoas/go-funk"
)

// ConanOption is one entry of conan's options_definitions: an option name and
// the literal values it accepts. Boolean options list "True" among them.
type ConanOption struct {
	Name   string
	Values []string
}

// ConanOptions keeps the declaration order reported by conan.
type ConanOptions []ConanOption

// Names returns the option names in declaration order.
func (c ConanOptions) Names() []string {
	names := make([]string, 0, len(c))
	for _, opt := range c {
		names = append(names, opt.Name)
	}
	return names
}

// Equivalence maps a conan build setting onto the option names that may carry
// its value. Candidates are resolved in order and the first setting wins.
type Equivalence struct {
	Setting    string   `json:"setting" yaml:"setting"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// DefaultEquivalences returns the built-in settings table: conan's build_type
// can be set with either its own name or meson's buildtype.
func DefaultEquivalences() []Equivalence {
	return []Equivalence{
		{Setting: "build_type", Candidates: []string{"build_type", "buildtype"}},
	}
}

func cloneEquivalences(table []Equivalence) []Equivalence {
	if table == nil {
		return nil
	}
	out := make([]Equivalence, len(table))
	for i, eq := range table {
		out[i] = Equivalence{
			Setting:    eq.Setting,
			Candidates: append([]string(nil), eq.Candidates...),
		}
	}
	return out
}

// ConanArgs renders "-o name=value" pairs for the declared conan options
// followed by "-s setting=value" pairs from the equivalence table. Each flag
// and its assignment are separate tokens.
func (r *Resolver) ConanArgs(pkg string, env Environment, options ConanOptions) ([]string, error) {
	var args []string
	for _, opt := range options {
		val, err := r.Resolve(pkg, env, opt.Name, ToolConan)
		if err != nil {
			return nil, err
		}

		var rendered string
		switch val.Kind {
		case KindAbsent:
			continue
		case KindEnabled, KindDisabled:
			// "True" in the allowed set marks a boolean option, for both states.
			if !funk.ContainsString(opt.Values, "True") {
				return nil, &UnsupportedSettingError{Tool: ToolConan, Option: opt.Name, Value: val}
			}
			rendered = boolLiteral(val)
		case KindString:
			if !funk.ContainsString(opt.Values, val.Text) {
				return nil, &UnsupportedSettingError{Tool: ToolConan, Option: opt.Name, Value: val}
			}
			rendered = r.quoted(val.Text)
		}
		r.trace(env, ResolutionEvent{
			Stage:   StageConan,
			Package: pkg,
			Option:  opt.Name,
			Value:   val,
			Message: fmt.Sprintf(" --- conan option - %s = %s", opt.Name, val),
		})
		args = append(args, "-o", fmt.Sprintf("%s=%s", opt.Name, rendered))
	}

	for _, eq := range r.cfg.equivalences {
		val, err := r.resolveFirst(pkg, env, eq.Candidates, ToolConan)
		if err != nil {
			return nil, err
		}
		if val.IsAbsent() {
			continue
		}
		rendered := r.quoted(val.Text)
		if val.IsBool() {
			rendered = boolLiteral(val)
		}
		r.trace(env, ResolutionEvent{
			Stage:   StageConan,
			Package: pkg,
			Option:  eq.Setting,
			Value:   val,
			Message: fmt.Sprintf(" --- conan setting - %s = %s", eq.Setting, val),
		})
		args = append(args, "-s", fmt.Sprintf("%s=%s", eq.Setting, rendered))
	}

	r.emitRendered(ToolConan, pkg, args)
	return args, nil
}

// ConanOptionsString renders ConanArgs joined with spaces.
func (r *Resolver) ConanOptionsString(pkg string, env Environment, options ConanOptions) (string, error) {
	args, err := r.ConanArgs(pkg, env, options)
	if err != nil {
		return "", err
	}
	return JoinArgs(args), nil
}

func (r *Resolver) resolveFirst(pkg string, env Environment, names []string, tool Tool) (Value, error) {
	for _, name := range names {
		val, err := r.Resolve(pkg, env, name, tool)
		if err != nil {
			return Absent(), err
		}
		if !val.IsAbsent() {
			return val, nil
		}
	}
	return Absent(), nil
}

func boolLiteral(val Value) string {
	if val.Kind == KindEnabled {
		return "True"
	}
	return "False"
}
