//go:build js_eval

package formopts

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	jsEvaluatorConfig
}

// NewJSEvaluator returns an Evaluator backed by goja. Each evaluation gets a
// fresh runtime; compiled programs are shared through the cache.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{applyJSEvaluatorOptions(opts)}
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return true
}

func isJSEvaluator(e Evaluator) bool {
	_, ok := e.(*jsEvaluator)
	return ok
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, emptyExpression("js")
	}
	id := cacheKey("js", expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(id); ok {
			if program, ok := cached.(*goja.Program); ok {
				return jsRule{evaluator: e, program: program, expression: expression}, nil
			}
		}
	}
	// The expression is wrapped so statements such as `return` are rejected
	// and the completion value is the guard result.
	program, err := goja.Compile("guard", "(function(){ return ("+expression+"); })()", true)
	if err != nil {
		return nil, guardFailure("js", PhaseCompile, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(id, program)
	}
	return jsRule{evaluator: e, program: program, expression: expression}, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	if timeout := r.evaluator.timeout; timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			vm.Interrupt(fmt.Sprintf("guard exceeded %s", timeout))
		})
		defer timer.Stop()
	}
	if err := r.evaluator.bind(vm, ctx); err != nil {
		return nil, guardFailure("js", PhaseRun, r.expression, ctx.label(), err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, guardFailure("js", PhaseRun, r.expression, ctx.label(), err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) bind(vm *goja.Runtime, ctx RuleContext) error {
	globals := make(map[string]any, len(ctx.Values)+2)
	for key, value := range ctx.Values {
		globals[key] = value
	}
	globals["key"] = ctx.Key
	globals["metadata"] = ctx.Metadata
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			globals[name] = e.registry.bind(name)
		}
		globals["call"] = func(name string, args ...any) (any, error) {
			return e.registry.Call(name, args...)
		}
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
