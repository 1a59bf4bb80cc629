package formopts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned when an expression guard has no source.
var ErrEmptyExpression = errors.New("formopts: guard expression is empty")

// GuardPhase names the step at which an expression guard failed.
type GuardPhase string

const (
	PhaseCompile GuardPhase = "compile"
	PhaseRun     GuardPhase = "run"
	// PhaseResult means the expression ran but did not produce a bool.
	PhaseResult GuardPhase = "result"
)

// EvaluationError reports a failed expression guard. Failed guards hide their
// option; the error only reaches the evaluator logger.
type EvaluationError struct {
	Engine string
	Expr   string
	Key    string
	Phase  GuardPhase
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("formopts: guard")
	if e.Key != "" {
		fmt.Fprintf(&b, " on %q", e.Key)
	}
	if e.Engine != "" {
		fmt.Fprintf(&b, " (%s)", e.Engine)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " %s", e.Phase)
	}
	b.WriteString(" failed")
	if e.Expr != "" {
		fmt.Fprintf(&b, " for %q", e.Expr)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// guardFailure wraps err as an EvaluationError. When err already carries one,
// only its blank fields are filled in.
func guardFailure(engine string, phase GuardPhase, expr, key string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if !errors.As(err, &existing) {
		return &EvaluationError{Engine: engine, Expr: expr, Key: key, Phase: phase, Err: err}
	}
	fill := func(field *string, v string) {
		if *field == "" {
			*field = v
		}
	}
	fill(&existing.Engine, engine)
	fill(&existing.Expr, expr)
	fill(&existing.Key, key)
	if existing.Phase == "" {
		existing.Phase = phase
	}
	return existing
}

func emptyExpression(engine string) error {
	return &EvaluationError{Engine: engine, Phase: PhaseCompile, Err: ErrEmptyExpression}
}
