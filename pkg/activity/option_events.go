package activity

import (
	"maps"
	"strings"
	"time"
)

const (
	// VerbOptionUpdated is emitted when a stored option value is written by a caller.
	VerbOptionUpdated = "options.updated"
	// VerbOptionCorrected is emitted when the default selector replaces a
	// stored value that left its valid choice set.
	VerbOptionCorrected = "options.corrected"

	// ObjectTypeOption is the object type of every option event.
	ObjectTypeOption = "option"
)

// OptionEventInput describes the fields shared by option lifecycle events.
type OptionEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Domain     string
	Key        string
	SnapshotID string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildOptionUpdatedEvent constructs the event for an explicit write.
func BuildOptionUpdatedEvent(input OptionEventInput) Event {
	return buildOptionEvent(VerbOptionUpdated, input)
}

// BuildOptionCorrectedEvent constructs the event for a fallback write.
func BuildOptionCorrectedEvent(input OptionEventInput) Event {
	return buildOptionEvent(VerbOptionCorrected, input)
}

func buildOptionEvent(verb string, input OptionEventInput) Event {
	metadata := maps.Clone(input.Metadata)
	set := func(name string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[name] = value
	}
	if input.Key != "" {
		set("key", input.Key)
	}
	if input.Domain != "" {
		set("domain", input.Domain)
	}
	if input.SnapshotID != "" {
		set("snapshot_id", input.SnapshotID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.Key)
	if domain := strings.TrimSpace(input.Domain); domain != "" && objectID != "" {
		objectID = domain + "." + objectID
	}
	if objectID == "" {
		objectID = ObjectTypeOption
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeOption,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
