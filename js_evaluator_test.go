//go:build js_eval

package formopts

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSGuards(t *testing.T) {
	functions := functionsWith(t, "hwAvailable", func(args ...any) (any, error) {
		return len(args) == 1 && args[0] == "hevc", nil
	})
	evaluator := NewJSEvaluator(JSWithFunctionRegistry(functions))
	tests := []struct {
		expression string
		values     Values
		want       any
	}{
		{expression: `codec === "hevc" && !keep`, values: Values{"codec": "hevc", "keep": false}, want: true},
		{expression: `hwAvailable(codec)`, values: Values{"codec": "h264"}, want: false},
		{expression: `call("hwAvailable", codec)`, values: Values{"codec": "hevc"}, want: true},
		{expression: `metadata.tier === "pro" && key === "target"`, values: Values{}, want: true},
	}
	for _, tt := range tests {
		ctx := RuleContext{Values: tt.values, Key: "target", Metadata: map[string]any{"tier": "pro"}}
		got, err := evaluator.Evaluate(ctx, tt.expression)
		if err != nil {
			t.Fatalf("%s: %v", tt.expression, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.expression, got, tt.want)
		}
	}
	if got := evaluatorEngineName(evaluator); got != "js" {
		t.Fatalf("engine = %s", got)
	}
}

func TestJSGuardTimeout(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{Key: "target"}, `(function(){ for(;;){} })()`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Phase != PhaseRun {
		t.Fatalf("expected run failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "guard exceeded") {
		t.Fatalf("expected interrupt message, got %v", err)
	}
}

func TestJSCompileErrors(t *testing.T) {
	cache := NewProgramCache()
	evaluator := NewJSEvaluator(JSWithProgramCache(cache))
	if _, err := evaluator.Compile(""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected empty expression error, got %v", err)
	}
	_, err := evaluator.Compile(`mode ===`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Phase != PhaseCompile {
		t.Fatalf("expected compile failure, got %v", err)
	}
	if _, err := evaluator.Compile(`keep`); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, ok := cache.Get(cacheKey("js", "keep")); !ok {
		t.Fatalf("expected compiled program in cache")
	}
}
