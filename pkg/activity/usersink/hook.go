// Package usersink forwards option activity to a go-users ActivitySink, so
// settings changes share the audit trail of user activity.
package usersink

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-form-options/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook writing to Sink. When Channels is set, only
// events on those channels are forwarded.
type Hook struct {
	Sink     usertypes.ActivitySink
	Channels []string
}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if len(h.Channels) > 0 && !slices.Contains(h.Channels, record.Channel) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record converts event to an ActivityRecord. It reports false for events
// that would not be delivered. Actor ids that are not UUIDs are kept in
// Data["actor_ref"].
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if !event.Complete() {
		return usertypes.ActivityRecord{}, false
	}
	data := event.Metadata
	actor := parseID(event.ActorID)
	if actor == uuid.Nil && event.ActorID != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["actor_ref"] = event.ActorID
	}
	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}
