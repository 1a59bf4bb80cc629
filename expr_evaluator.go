package formopts

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry functions to expressions.
// The registry is cloned, so later registrations are not seen.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.functions = registry.Clone()
		}
	}
}

type exprEvaluator struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// NewExprEvaluator returns the default guard engine, backed by
// github.com/expr-lang/expr. Keys that are not bound evaluate to nil.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, emptyExpression("expr")
	}
	id := cacheKey("expr", expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(id); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return exprRule{program: program, expression: expression}, nil
			}
		}
	}
	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, guardFailure("expr", PhaseCompile, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(id, program)
	}
	return exprRule{program: program, expression: expression}, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	opts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.functions == nil {
		return opts
	}
	for _, name := range e.functions.Names() {
		opts = append(opts, exprlang.Function(name, e.functions.bind(name)))
	}
	return append(opts, exprlang.Function("call", func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("call: function name required")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("call: function name must be a string, got %T", args[0])
		}
		return e.functions.Call(name, args[1:]...)
	}))
}

type exprRule struct {
	program    *exprvm.Program
	expression string
}

func (r exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	env := make(map[string]any, len(ctx.Values)+2)
	for key, value := range ctx.Values {
		env[key] = value
	}
	env["key"] = ctx.Key
	env["metadata"] = ctx.Metadata
	result, err := exprlang.Run(r.program, env)
	if err != nil {
		return nil, guardFailure("expr", PhaseRun, r.expression, ctx.label(), err)
	}
	return result, nil
}
