package formopts

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrNoEvaluator = errors.New("formopts: evaluator not configured")

// evaluateGuard runs an expression guard with only the declared keys bound.
// A non-boolean result is an error.
func (r *Registry) evaluateGuard(key string, guard Guard, values Values) (bool, error) {
	evaluator := r.cfg.evaluator
	engine := evaluatorEngineName(evaluator)

	bound := make(Values, len(guard.keys))
	names := make([]string, 0, len(guard.keys))
	for _, k := range guard.keys {
		if _, dup := bound[k]; !dup {
			names = append(names, k)
		}
		bound[k] = values[k]
	}
	sort.Strings(names)
	ctx := RuleContext{Values: bound, Key: key, Metadata: copyMetadata(r.cfg.metadata)}.withDefaults()

	start := time.Now()
	visible, err := runGuard(evaluator, ctx, guard.expression)
	event := EvaluatorLogEvent{
		Engine:   engine,
		Expr:     guard.expression,
		Key:      ctx.label(),
		Bound:    names,
		Visible:  visible,
		Duration: time.Since(start),
		Err:      guardFailure(engine, PhaseRun, guard.expression, ctx.label(), err),
	}
	r.cfg.logger.LogEvaluation(event)
	return event.Visible, event.Err
}

func runGuard(evaluator Evaluator, ctx RuleContext, expression string) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	result, err := evaluator.Evaluate(ctx, expression)
	if err != nil {
		return false, err
	}
	visible, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Phase: PhaseResult,
			Err:   fmt.Errorf("guard result must be bool, got %T", result),
		}
	}
	return visible, nil
}

func (r *Registry) defaultEvaluator() Evaluator {
	var exprOpts []ExprEvaluatorOption
	if cache := r.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := r.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	return NewExprEvaluator(exprOpts...)
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
