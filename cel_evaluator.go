package buildopts

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator. Checked
// ASTs are cached; programs are rebuilt per evaluation because the option
// functions are bound to the evaluation context.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator. Its
// functions are reachable through call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	bindings := newOptionBindings(ctx)
	env, err := e.buildEnv(bindings)
	if err != nil {
		return nil, wrapEvaluatorError(EngineCEL, err)
	}
	ast, err := e.loadOrCheck(env, expression)
	if err != nil {
		return nil, err
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.Package, err)
	}
	out, _, err := program.Eval(map[string]any{
		"pkg":      bindings.ctx.Package,
		"metadata": bindings.ctx.Metadata,
	})
	if failure := bindings.failure(); failure != nil {
		return nil, failure
	}
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.Package, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	env, err := e.buildEnv(newOptionBindings(RuleContext{}))
	if err != nil {
		return nil, wrapEvaluatorError(EngineCEL, err)
	}
	if _, err := e.loadOrCheck(env, expression); err != nil {
		return nil, err
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCheck(env *celgo.Env, expression string) (*celgo.Ast, error) {
	key := EngineCEL + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if ast, ok := cached.(*celgo.Ast); ok {
				return ast, nil
			}
		}
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
	}
	if e.cache != nil {
		e.cache.Set(key, ast)
	}
	return ast, nil
}

func (e *celEvaluator) buildEnv(b *optionBindings) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("pkg", celgo.StringType),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Function("enabled",
			celgo.Overload("enabled_string", []*celgo.Type{celgo.StringType}, celgo.BoolType,
				celgo.UnaryBinding(func(arg ref.Val) ref.Val {
					return types.Bool(b.enabled(fmt.Sprint(arg.Value())))
				}),
			),
		),
		celgo.Function("disabled",
			celgo.Overload("disabled_string", []*celgo.Type{celgo.StringType}, celgo.BoolType,
				celgo.UnaryBinding(func(arg ref.Val) ref.Val {
					return types.Bool(b.disabled(fmt.Sprint(arg.Value())))
				}),
			),
		),
		celgo.Function("option",
			celgo.Overload("option_string", []*celgo.Type{celgo.StringType}, celgo.StringType,
				celgo.UnaryBinding(func(arg ref.Val) ref.Val {
					return types.String(b.option(fmt.Sprint(arg.Value())))
				}),
			),
		),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list", []*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType,
				celgo.BinaryBinding(e.callBinding()),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}

func (e *celEvaluator) callBinding() func(ref.Val, ref.Val) ref.Val {
	return func(nameVal, argsVal ref.Val) ref.Val {
		name, ok := nameVal.Value().(string)
		if !ok {
			return types.NewErr("buildopts: call name must be string")
		}
		native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
		if err != nil {
			return types.NewErr("buildopts: call arguments: %v", err)
		}
		result, err := e.registry.Call(name, native.([]any)...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
