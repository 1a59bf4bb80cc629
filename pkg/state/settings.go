package state

import (
	"context"
	"fmt"
	"sync"

	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/pkg/activity"
)

// Settings adapts a Store[formopts.Values] to the per-key formopts.Store
// contract. Keys that were never written read as their default.
type Settings struct {
	mu       sync.Mutex
	store    Store[formopts.Values]
	ref      Ref
	defaults formopts.Values
	etag     string
	emitter  *activity.Emitter
	actorID  string
}

var _ formopts.Store = (*Settings)(nil)

// SettingsOption configures a Settings adapter.
type SettingsOption func(*Settings)

// WithSettingsActivity publishes an options.updated event after every
// successful Set.
func WithSettingsActivity(hooks activity.Hooks, channel string) SettingsOption {
	return func(s *Settings) {
		s.emitter = activity.NewEmitter(channel, hooks...)
	}
}

// WithSettingsActor records actorID on emitted events.
func WithSettingsActor(actorID string) SettingsOption {
	return func(s *Settings) {
		s.actorID = actorID
	}
}

func NewSettings(store Store[formopts.Values], ref Ref, defaults formopts.Values, opts ...SettingsOption) (*Settings, error) {
	if store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, err
	}
	s := &Settings{
		store:    store,
		ref:      ref,
		defaults: cloneValues(defaults),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Settings) Ref() Ref { return s.ref }

// Get returns the stored value of key, or its default when unset.
func (s *Settings) Get(ctx context.Context, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if value, ok := snapshot[key]; ok {
		return value, nil
	}
	return s.defaults[key], nil
}

// Lookup returns the stored value for key and whether one exists, ignoring
// defaults.
func (s *Settings) Lookup(ctx context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	value, ok := snapshot[key]
	return value, ok, nil
}

// Values returns defaults overlaid with every stored value.
func (s *Settings) Values(ctx context.Context) (formopts.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := cloneValues(s.defaults)
	if out == nil {
		out = formopts.Values{}
	}
	for key, value := range snapshot {
		out[key] = value
	}
	return out, nil
}

// Set writes key durably. It fails with ErrETagMismatch when the snapshot
// changed underneath since this adapter last read it.
func (s *Settings) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old any
	_, meta, err := Mutate(ctx, s.store, s.ref, Meta{ETag: s.etag}, func(snapshot *formopts.Values) error {
		next := cloneValues(*snapshot)
		if next == nil {
			next = formopts.Values{}
		}
		if current, ok := next[key]; ok {
			old = current
		} else {
			old = s.defaults[key]
		}
		next[key] = value
		*snapshot = next
		return nil
	})
	if err != nil {
		return err
	}
	s.etag = meta.ETag

	// Delivery errors do not undo the write.
	_ = s.emitter.OptionUpdated(ctx, activity.OptionEventInput{
		ActorID:    s.actorID,
		Domain:     s.ref.Domain,
		Key:        key,
		SnapshotID: meta.SnapshotID,
		OldValue:   old,
		NewValue:   value,
		OccurredAt: meta.UpdatedAt,
	})
	return nil
}

func (s *Settings) load(ctx context.Context) (formopts.Values, error) {
	snapshot, meta, ok, err := s.store.Load(ctx, s.ref)
	if err != nil {
		return nil, fmt.Errorf("state: load %q: %w", s.ref.Domain, err)
	}
	if !ok {
		s.etag = ""
		return nil, nil
	}
	s.etag = meta.ETag
	return snapshot, nil
}

func cloneValues(in formopts.Values) formopts.Values {
	if in == nil {
		return nil
	}
	out := make(formopts.Values, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
