//go:build !js_eval

package formopts

// NewJSEvaluator is unavailable without the js_eval build tag and returns nil;
// a registry given a nil evaluator falls back to expr.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return false
}

func isJSEvaluator(Evaluator) bool {
	return false
}
