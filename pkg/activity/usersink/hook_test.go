package usersink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-form-options/pkg/activity"
	"github.com/goliatone/go-form-options/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsCorrectionEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildOptionCorrectedEvent(activity.OptionEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "settings",
		Domain:     "video_transcoder",
		Key:        "video_encoder",
		OldValue:   "libx264",
		NewValue:   "libx265",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: actor=%s tenant=%s", record.ActorID, record.TenantID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id, got %s", record.UserID)
	}
	if record.Verb != activity.VerbOptionCorrected || record.ObjectType != activity.ObjectTypeOption {
		t.Fatalf("unexpected verb/object type: %s/%s", record.Verb, record.ObjectType)
	}
	if record.ObjectID != "video_transcoder.video_encoder" || record.Channel != "settings" {
		t.Fatalf("unexpected object/channel: %s/%s", record.ObjectID, record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred at %v, got %v", now, record.OccurredAt)
	}
	if record.Data["old_value"] != "libx264" || record.Data["new_value"] != "libx265" {
		t.Fatalf("unexpected data: %+v", record.Data)
	}
}

func TestHookNotifyKeepsNonUUIDActor(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbOptionUpdated,
		ActorID:    "formctl",
		ObjectType: activity.ObjectTypeOption,
		ObjectID:   "mode",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["actor_ref"] != "formctl" {
		t.Fatalf("expected actor_ref preserved, got %+v", record.Data)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred at to be stamped")
	}
}

func TestHookNotifySkipsIncompleteEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "options.updated"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}

	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookChannelFilter(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Channels: []string{"audit"}}
	ctx := context.Background()
	for _, channel := range []string{"settings", "audit"} {
		event := activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z", Channel: channel}
		if err := hook.Notify(ctx, event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(sink.records) != 1 || sink.records[0].Channel != "audit" {
		t.Fatalf("records = %+v", sink.records)
	}
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	actor := uuid.New()
	hook := usersink.Hook{Sink: &usersink.JSONLines{W: &buf}}
	events := []activity.Event{
		activity.BuildOptionUpdatedEvent(activity.OptionEventInput{ActorID: actor.String(), Key: "mode", NewValue: "standard"}),
		activity.BuildOptionCorrectedEvent(activity.OptionEventInput{ActorID: "formctl", Key: "video_encoder"}),
	}
	for _, event := range events {
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first["actor_id"] != actor.String() || first["verb"] != activity.VerbOptionUpdated {
		t.Fatalf("first = %v", first)
	}
	if _, ok := second["actor_id"]; ok {
		t.Fatalf("non-uuid actor must not be written as an id: %v", second)
	}
	if second["data"].(map[string]any)["actor_ref"] != "formctl" {
		t.Fatalf("second = %v", second)
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}
	err := hook.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
