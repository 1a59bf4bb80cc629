// Package logging builds the charmbracelet logger used by formctl and adapts
// it to the formopts logging and activity contracts.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/pkg/activity"
)

// New returns a logger writing to w, or stderr when w is nil. verbose enables
// debug output, which includes every guard evaluation.
func New(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// EvaluatorLogger logs successful evaluations at debug level and failures as
// warnings.
func EvaluatorLogger(logger *log.Logger) formopts.EvaluatorLogger {
	if logger == nil {
		return nil
	}
	return formopts.EvaluatorLoggerFunc(func(event formopts.EvaluatorLogEvent) {
		keyvals := []any{
			"engine", event.Engine,
			"key", event.Key,
			"expr", event.Expr,
		}
		if event.Failed() {
			logger.Warn("guard evaluation failed", append(keyvals, "err", event.Err)...)
			return
		}
		if len(event.Bound) > 0 {
			keyvals = append(keyvals, "reads", strings.Join(event.Bound, ","))
		}
		logger.Debug("guard evaluated", append(keyvals, "visible", event.Visible, "took", event.Duration)...)
	})
}

// ActivityHook logs option activity events at info level.
func ActivityHook(logger *log.Logger) activity.HookFunc {
	return func(_ context.Context, event activity.Event) error {
		if logger == nil {
			return nil
		}
		keyvals := []any{"object", event.ObjectID}
		if event.ActorID != "" {
			keyvals = append(keyvals, "actor", event.ActorID)
		}
		if old, ok := event.Metadata["old_value"]; ok {
			keyvals = append(keyvals, "from", old)
		}
		if next, ok := event.Metadata["new_value"]; ok {
			keyvals = append(keyvals, "to", next)
		}
		logger.Info(event.Verb, keyvals...)
		return nil
	}
}
