package buildopts

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Evaluator engines understood by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// RuleContext carries the inputs of a condition. Options are resolved lazily
// through Lookup, without any tool suffix.
type RuleContext struct {
	Package  string
	Lookup   func(name string) (Value, error)
	Metadata map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Lookup == nil {
		ctx.Lookup = func(string) (Value, error) { return Absent(), nil }
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// Evaluator executes condition expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// NewEvaluator returns the evaluator for engine with the given cache and
// registry. The js engine is only available when built with the js_eval tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		e := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if e == nil {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// jsSettings collects the goja evaluator options. They live outside the
// js_eval build so NewEvaluator compiles either way.
type jsSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSEvaluatorOption configures the goja evaluator.
type JSEvaluatorOption func(*jsSettings)

// JSWithProgramCache stores compiled goja programs in cache under "js:" keys.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.cache = scopedCache(EngineJS, cache)
	}
}

// JSWithFunctionRegistry exposes a copy of registry to scripts through
// call(name, ...args).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		if registry != nil {
			s.registry = registry.Clone()
		}
	}
}

// optionBindings exposes enabled, disabled and option to an expression and
// keeps the first resolution error so it survives engines that cannot return
// errors from bound functions.
type optionBindings struct {
	ctx RuleContext
	mu  sync.Mutex
	err error
}

func newOptionBindings(ctx RuleContext) *optionBindings {
	return &optionBindings{ctx: ctx.withDefaults()}
}

func (b *optionBindings) value(name string) Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return Absent()
	}
	val, err := b.ctx.Lookup(name)
	if err != nil {
		b.err = err
		return Absent()
	}
	return val
}

func (b *optionBindings) enabled(name string) bool {
	return b.value(name).Truthy()
}

func (b *optionBindings) disabled(name string) bool {
	return !b.value(name).Truthy()
}

func (b *optionBindings) option(name string) string {
	val := b.value(name)
	if val.IsAbsent() {
		return ""
	}
	return val.String()
}

func (b *optionBindings) failure() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Condition evaluates expr with the configured evaluator. The expression sees
// enabled(name), disabled(name), option(name) and the package name as pkg. It
// must produce a bool.
func (r *Resolver) Condition(pkg string, env Environment, expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, fmt.Errorf("buildopts: condition must not be empty")
	}
	evaluator, err := r.resolveEvaluator()
	if err != nil {
		return false, err
	}
	ctx := RuleContext{
		Package: pkg,
		Lookup: func(name string) (Value, error) {
			return r.Resolve(pkg, env, name, ToolNone)
		},
	}
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, pkg, evalErr)
	if evalErr == nil {
		if _, ok := value.(bool); !ok {
			evalErr = wrapEvaluationError(engine, expr, pkg, fmt.Errorf("condition produced %T, want bool", value))
		}
	}
	r.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Package:  pkg,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return false, evalErr
	}
	return value.(bool), nil
}

func (r *Resolver) resolveEvaluator() (Evaluator, error) {
	if r.cfg.evaluator != nil {
		return r.cfg.evaluator, nil
	}
	e := NewExprEvaluator(ExprWithProgramCache(r.cfg.programCache), ExprWithFunctionRegistry(r.cfg.functions))
	if e == nil {
		return nil, ErrNoEvaluator
	}
	return e, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		if isJSEvaluator(e) {
			return EngineJS
		}
		return "custom"
	}
}
