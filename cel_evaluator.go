package formopts

import (
	"reflect"
	"slices"
	"sort"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache shares checked programs through cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes the registry as call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.functions = registry.Clone()
		}
	}
}

type celEvaluator struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every bound key is
// declared as a dyn variable, so programs are checked per variable set.
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
		return nil, emptyExpression("cel")
	}
	ctx = ctx.withDefaults()
	program, err := e.program(expression, variableNames(ctx.Values))
	if err != nil {
		return nil, guardFailure("cel", PhaseCompile, expression, ctx.label(), err)
	}
	return e.run(program, expression, ctx)
}

// Compile checks expression eagerly when WithVariables is given. Otherwise
// the program is built on first use for each variable set.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, emptyExpression("cel")
	}
	cfg := applyCompileOptions(opts)
	rule := &celRule{evaluator: e, expression: expression}
	if cfg.variables != nil {
		names := slices.Clone(cfg.variables)
		sort.Strings(names)
		program, err := e.program(expression, slices.Compact(names))
		if err != nil {
			return nil, guardFailure("cel", PhaseCompile, expression, "", err)
		}
		rule.program = program
	}
	return rule, nil
}

func variableNames(values Values) []string {
	names := make([]string, 0, len(values))
	for key := range values {
		if key == "key" || key == "metadata" {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func (e *celEvaluator) program(expression string, names []string) (celgo.Program, error) {
	id := cacheKey("cel", expression, names...)
	if e.cache != nil {
		if cached, ok := e.cache.Get(id); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	env, err := e.env(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(id, program)
	}
	return program, nil
}

func (e *celEvaluator) env(names []string) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(names)+3)
	opts = append(opts,
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
	)
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.functions != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.BinaryBinding(e.call),
		)))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(program celgo.Program, expression string, ctx RuleContext) (any, error) {
	vars := make(map[string]any, len(ctx.Values)+2)
	for key, value := range ctx.Values {
		vars[key] = value
	}
	vars["key"] = ctx.Key
	vars["metadata"] = ctx.Metadata
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, guardFailure("cel", PhaseRun, expression, ctx.label(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) call(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("call: function name must be a string")
	}
	native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
	if err != nil {
		return types.NewErr("call %s: %v", name, err)
	}
	args, _ := native.([]any)
	result, err := e.functions.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
	// program is set when the rule was compiled with declared variables.
	program celgo.Program
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	if r.program == nil {
		return r.evaluator.Evaluate(ctx, r.expression)
	}
	return r.evaluator.run(r.program, r.expression, ctx.withDefaults())
}
