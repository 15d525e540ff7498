package buildopts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("buildopts: conflicting settings")
	// ErrUnsupportedSetting matches any *UnsupportedSettingError.
	ErrUnsupportedSetting = errors.New("buildopts: unsupported setting")
	// ErrExternalTool matches any *ExternalToolError.
	ErrExternalTool = errors.New("buildopts: external tool failed")
	// ErrNoEvaluator is returned when a condition is evaluated without an
	// available evaluator.
	ErrNoEvaluator = errors.New("buildopts: evaluator not configured")
)

// ConflictError reports more than one of enable, disable and value being set
// for the same option at one precedence tier.
type ConflictError struct {
	Option  string
	Package string
	Keys    []string
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("conflicting settings present for %s", e.Option)
}

// Is lets errors.Is match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UnsupportedSettingError reports a resolved value outside the allowed values
// declared by the build tool.
type UnsupportedSettingError struct {
	Tool   Tool
	Option string
	Value  Value
}

func (e *UnsupportedSettingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Value.Kind {
	case KindEnabled:
		return fmt.Sprintf("%s does not support True setting", e.Option)
	case KindDisabled:
		return fmt.Sprintf("%s does not support False setting", e.Option)
	default:
		return fmt.Sprintf("%s does not support %q setting", e.Option, e.Value.Text)
	}
}

// Is lets errors.Is match ErrUnsupportedSetting.
func (e *UnsupportedSettingError) Is(target error) bool {
	return target == ErrUnsupportedSetting
}

// ExternalToolError captures a failed introspection command together with
// what it printed.
type ExternalToolError struct {
	Tool   Tool
	Op     string
	Cmd    string
	Stdout string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "buildopts: %s %s", e.Tool, e.Op)
	if e.Cmd != "" {
		fmt.Fprintf(&b, " (%s)", e.Cmd)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match ErrExternalTool.
func (e *ExternalToolError) Is(target error) bool {
	return target == ErrExternalTool
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine  string
	Expr    string
	Package string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("buildopts: %s evaluator %s package=%s: %v", e.Engine, describeExpression(e.Expr), describePackage(e.Package), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describePackage(pkg string) string {
	if pkg == "" {
		return "<global>"
	}
	return pkg
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "buildopts:") {
		return err
	}
	return fmt.Errorf("buildopts: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, pkg string, err error) error {
	if err == nil {
		return nil
	}

	// resolution failures keep their own type so callers can still match them
	if errors.Is(err, ErrConflict) {
		return err
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Package == "" {
			evalErr.Package = pkg
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:  engine,
		Expr:    expr,
		Package: pkg,
		Err:     err,
	}
}
