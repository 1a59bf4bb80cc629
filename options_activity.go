package formopts

import "github.com/goliatone/go-form-options/pkg/activity"

// WithActivityHooks publishes an options.corrected event on channel whenever
// Reconcile rewrites a stored value. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks, channel string) Option {
	return func(cfg *registryConfig) {
		cfg.activity = activity.NewEmitter(channel, hooks...)
	}
}

// ActivityEnabled reports whether corrections are published to hooks.
func (r *Registry) ActivityEnabled() bool {
	return r != nil && r.cfg.activity.Enabled()
}
