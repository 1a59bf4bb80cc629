package usersink

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// JSONLines is an ActivitySink appending one JSON object per record to W.
type JSONLines struct {
	mu sync.Mutex
	W  io.Writer
}

type jsonRecord struct {
	ActorID    string         `json:"actor_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Channel    string         `json:"channel,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (s *JSONLines) Log(_ context.Context, record usertypes.ActivityRecord) error {
	line, err := json.Marshal(jsonRecord{
		ActorID:    idString(record.ActorID),
		UserID:     idString(record.UserID),
		TenantID:   idString(record.TenantID),
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Channel:    record.Channel,
		Data:       record.Data,
		OccurredAt: record.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.W.Write(append(line, '\n'))
	return err
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
