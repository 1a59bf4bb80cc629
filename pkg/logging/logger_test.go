package logging_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/pkg/activity"
	"github.com/goliatone/go-form-options/pkg/logging"
)

func TestEvaluatorLoggerLevels(t *testing.T) {
	var quiet bytes.Buffer
	logging.EvaluatorLogger(logging.New(&quiet, false)).LogEvaluation(formopts.EvaluatorLogEvent{
		Engine:   "expr",
		Key:      "max_muxing_queue_size",
		Expr:     `mode != "basic"`,
		Duration: time.Millisecond,
	})
	if quiet.Len() != 0 {
		t.Fatalf("expected debug output to be suppressed, got %q", quiet.String())
	}

	var verbose bytes.Buffer
	logging.EvaluatorLogger(logging.New(&verbose, true)).LogEvaluation(formopts.EvaluatorLogEvent{
		Engine:  "expr",
		Key:     "max_muxing_queue_size",
		Expr:    `mode != "basic"`,
		Bound:   []string{"mode"},
		Visible: true,
	})
	for _, want := range []string{"guard evaluated", "max_muxing_queue_size", "reads=mode", "visible=true"} {
		if !strings.Contains(verbose.String(), want) {
			t.Fatalf("expected %q in verbose output %q", want, verbose.String())
		}
	}

	var failures bytes.Buffer
	logging.EvaluatorLogger(logging.New(&failures, false)).LogEvaluation(formopts.EvaluatorLogEvent{
		Engine: "cel",
		Key:    "dest_container",
		Err:    errors.New("boom"),
	})
	if !strings.Contains(failures.String(), "guard evaluation failed") || !strings.Contains(failures.String(), "boom") {
		t.Fatalf("expected failure to be logged, got %q", failures.String())
	}
}

func TestEvaluatorLoggerNil(t *testing.T) {
	if logging.EvaluatorLogger(nil) != nil {
		t.Fatalf("expected nil adapter for nil logger")
	}
}

func TestActivityHookLogsCorrections(t *testing.T) {
	var buf bytes.Buffer
	hook := logging.ActivityHook(logging.New(&buf, false))
	event := activity.BuildOptionCorrectedEvent(activity.OptionEventInput{
		Key:      "video_encoder",
		OldValue: "libx264",
		NewValue: "libx265",
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"options.corrected", "video_encoder", "libx264", "libx265"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
