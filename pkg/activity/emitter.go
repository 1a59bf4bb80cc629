package activity

import (
	"context"
	"strings"
)

// DefaultChannel is used when an emitter is built without a channel.
const DefaultChannel = "settings"

// Emitter publishes option events to a fixed set of hooks on one channel. A
// nil Emitter, or one without hooks, publishes nothing.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter returns an emitter for channel. Nil hooks are dropped.
func NewEmitter(channel string, hooks ...ActivityHook) *Emitter {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{hooks: Hooks(hooks).Compact(), channel: channel}
}

func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit delivers event, filling in the emitter channel when the event has none.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

// OptionUpdated publishes an options.updated event.
func (e *Emitter) OptionUpdated(ctx context.Context, input OptionEventInput) error {
	if !e.Enabled() {
		return nil
	}
	return e.Emit(ctx, BuildOptionUpdatedEvent(input))
}

// OptionCorrected publishes an options.corrected event.
func (e *Emitter) OptionCorrected(ctx context.Context, input OptionEventInput) error {
	if !e.Enabled() {
		return nil
	}
	return e.Emit(ctx, BuildOptionCorrectedEvent(input))
}
