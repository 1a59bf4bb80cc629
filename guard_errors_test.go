package formopts

import (
	"errors"
	"testing"
)

func TestGuardFailureWrapsPlainErrors(t *testing.T) {
	base := errors.New("boom")
	err := guardFailure("expr", PhaseRun, "keep_container && missing", "video_encoder", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	want := EvaluationError{Engine: "expr", Expr: "keep_container && missing", Key: "video_encoder", Phase: PhaseRun}
	if evalErr.Engine != want.Engine || evalErr.Expr != want.Expr || evalErr.Key != want.Key || evalErr.Phase != want.Phase {
		t.Fatalf("got %+v, want %+v", evalErr, want)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if guardFailure("expr", PhaseRun, "", "", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestGuardFailureFillsBlankFields(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Phase: PhaseCompile, Err: base}

	err := guardFailure("cel", PhaseRun, "rule", "dest_container", existing)
	if err != existing {
		t.Fatalf("expected the existing error to be returned")
	}
	if existing.Engine != "expr" || existing.Phase != PhaseCompile {
		t.Fatalf("set fields must not be overwritten: %+v", existing)
	}
	if existing.Expr != "rule" || existing.Key != "dest_container" {
		t.Fatalf("blank fields should be filled: %+v", existing)
	}
}

func TestEvaluationErrorMessage(t *testing.T) {
	tests := []struct {
		err  *EvaluationError
		want string
	}{
		{
			err:  &EvaluationError{Engine: "cel", Expr: "mode ==", Key: "target", Phase: PhaseCompile, Err: errors.New("syntax")},
			want: `formopts: guard on "target" (cel) compile failed for "mode ==": syntax`,
		},
		{
			err:  &EvaluationError{Err: errors.New("bare")},
			want: "formopts: guard failed: bare",
		},
		{
			err:  emptyExpression("expr").(*EvaluationError),
			want: "formopts: guard (expr) compile failed: " + ErrEmptyExpression.Error(),
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Fatalf("got %q, want %q", got, tt.want)
		}
	}
	var nilErr *EvaluationError
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Fatalf("nil receiver should be safe")
	}
}
