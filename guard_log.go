package formopts

import "time"

// EvaluatorLogEvent is emitted once per expression guard evaluation.
type EvaluatorLogEvent struct {
	Engine string
	Expr   string
	// Key is the option owning the guard.
	Key string
	// Bound lists the keys exposed to the expression, sorted.
	Bound    []string
	Visible  bool
	Duration time.Duration
	Err      error
}

// Failed reports whether the guard errored. A failed guard always hides.
func (e EvaluatorLogEvent) Failed() bool {
	return e.Err != nil
}

// EvaluatorLogger receives guard evaluation events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger. A nil func drops
// every event.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// WithEvaluatorLogger routes guard evaluation events to logger. Passing nil
// discards them.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *registryConfig) {
		if logger == nil {
			logger = EvaluatorLoggerFunc(nil)
		}
		cfg.logger = logger
	}
}
