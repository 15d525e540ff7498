package buildopts

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/thoas/go-funk"
)

// Meson option types handled by the formatter. Other types are ignored.
const (
	MesonTypeString  = "string"
	MesonTypeBoolean = "boolean"
	MesonTypeArray   = "array"
)

// MesonOption is one entry of `meson introspect --buildoptions`.
type MesonOption struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Section     string `json:"section,omitempty"`
	Description string `json:"description,omitempty"`
	Choices     []any  `json:"choices,omitempty"`
}

// DefaultQuote returns the quote used around string values on the host: a
// double quote on windows, a single quote elsewhere.
func DefaultQuote() string {
	return QuoteFor(runtime.GOOS)
}

// QuoteFor returns the quote used for goos.
func QuoteFor(goos string) string {
	if goos == "windows" {
		return `"`
	}
	return `'`
}

// MesonArgs renders the -D arguments for the declared meson options, one token
// per option in declaration order. Blacklisted names are always skipped.
func (r *Resolver) MesonArgs(pkg string, env Environment, options []MesonOption) ([]string, error) {
	var args []string
	for _, opt := range options {
		if funk.ContainsString(r.cfg.mesonBlacklist, opt.Name) {
			continue
		}

		val, err := r.Resolve(pkg, env, opt.Name, ToolMeson)
		if err != nil {
			return nil, err
		}

		switch opt.Type {
		case MesonTypeString, MesonTypeArray:
			if val.IsAbsent() {
				continue
			}
			r.trace(env, ResolutionEvent{
				Stage:   StageMeson,
				Package: pkg,
				Option:  opt.Name,
				Value:   val,
				Message: fmt.Sprintf(" --- meson option - %s = %q", opt.Name, val.String()),
			})
			args = append(args, fmt.Sprintf("-D%s=%s", opt.Name, r.quoted(val.String())))
		case MesonTypeBoolean:
			var literal string
			switch val.Kind {
			case KindEnabled:
				literal = "True"
			case KindDisabled:
				literal = "False"
			default:
				continue
			}
			r.trace(env, ResolutionEvent{
				Stage:   StageMeson,
				Package: pkg,
				Option:  opt.Name,
				Value:   val,
				Message: fmt.Sprintf(" --- meson option %s = %s", opt.Name, literal),
			})
			args = append(args, fmt.Sprintf("-D%s=%s", opt.Name, literal))
		}
	}
	r.emitRendered(ToolMeson, pkg, args)
	return args, nil
}

// MesonOptions renders MesonArgs joined with spaces. Token boundaries are lost
// when a value contains a space; use MesonArgs where that matters.
func (r *Resolver) MesonOptions(pkg string, env Environment, options []MesonOption) (string, error) {
	args, err := r.MesonArgs(pkg, env, options)
	if err != nil {
		return "", err
	}
	return JoinArgs(args), nil
}

// JoinArgs joins tokens into the single string form consumed by build scripts.
func JoinArgs(args []string) string {
	return strings.Join(args, " ")
}

func (r *Resolver) quoted(value string) string {
	return r.cfg.quote + value + r.cfg.quote
}
