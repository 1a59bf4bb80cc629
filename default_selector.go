package formopts

import (
	"context"
	"fmt"

	"github.com/goliatone/go-form-options/pkg/activity"
)

// SelectDefault decides whether current must be replaced to stay a member of
// choices. The first choice in declaration order is the fallback. An empty
// choice set never asks for a replacement: there is nothing valid to write.
func SelectDefault(choices ChoiceSet, current any) (fallback string, replace bool) {
	if len(choices) == 0 {
		return "", false
	}
	valid := make(map[string]struct{}, len(choices))
	for i, choice := range choices {
		valid[choice.Value] = struct{}{}
		if i == 0 {
			fallback = choice.Value
		}
	}
	if s, ok := current.(string); ok {
		if _, member := valid[s]; member {
			return "", false
		}
	}
	return fallback, true
}

// Correction reports the outcome of reconciling one stored value.
type Correction struct {
	Key     string
	From    any
	To      string
	Applied bool
}

// Reconcile makes sure the stored value of d.Key is one of d's choices,
// writing the first declared choice when it is not. Only options declared
// with SelectBy are reconciled; for every other option this is a no-op.
func (r *Registry) Reconcile(ctx context.Context, store Store, d Descriptor) (Correction, error) {
	def := r.mustDefinition(d.Key)
	correction := Correction{Key: d.Key}
	if !isReconciled(def.Input) {
		return correction, nil
	}
	choices, ok := d.Choices()
	if !ok {
		return correction, nil
	}
	current, err := store.Get(ctx, d.Key)
	if err != nil {
		return correction, fmt.Errorf("formopts: read %q: %w", d.Key, err)
	}
	correction.From = current
	fallback, replace := SelectDefault(choices, current)
	if !replace {
		return correction, nil
	}
	if err := store.Set(ctx, d.Key, fallback); err != nil {
		return correction, fmt.Errorf("formopts: write %q: %w", d.Key, err)
	}
	correction.To = fallback
	correction.Applied = true
	r.emitCorrection(ctx, correction)
	return correction, nil
}

func (r *Registry) emitCorrection(ctx context.Context, c Correction) {
	// Delivery errors do not undo the write.
	_ = r.cfg.activity.OptionCorrected(ctx, activity.OptionEventInput{
		Key:      c.Key,
		OldValue: c.From,
		NewValue: c.To,
		Metadata: copyMetadata(r.cfg.metadata),
	})
}
