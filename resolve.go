package formopts

import (
	"context"
	"fmt"
)

// Store is the settings capability the resolver needs from its host. Get
// returns the stored value for key, or the registry default when the key was
// never set. Failures are propagated unchanged to the caller of Resolve.
type Store interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
}

// Describe computes key's descriptor from values without touching any store.
// It panics when key was never registered.
func (r *Registry) Describe(key string, values Values) Descriptor {
	def := r.mustDefinition(key)
	if values == nil {
		values = Values{}
	}
	return Descriptor{
		Key:         def.Key,
		Label:       def.Label,
		Description: def.Description,
		Tooltip:     def.Tooltip,
		Section:     def.Section,
		SubSetting:  def.SubSetting,
		Visible:     r.visible(def, values),
		Input:       def.Input.input(values),
	}
}

func (r *Registry) visible(def Definition, values Values) bool {
	for _, guard := range def.Guards {
		ok, err := guard.allow(values, func(g Guard, v Values) (bool, error) {
			return r.evaluateGuard(def.Key, g, v)
		})
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// Resolve reads key's declared dependencies from store, computes the
// descriptor and reconciles the stored value against it before returning.
func (r *Registry) Resolve(ctx context.Context, store Store, key string) (Descriptor, error) {
	r.mustDefinition(key)
	values, err := r.read(ctx, store, r.deps[key])
	if err != nil {
		return Descriptor{}, err
	}
	descriptor := r.Describe(key, values)
	if _, err := r.Reconcile(ctx, store, descriptor); err != nil {
		return Descriptor{}, err
	}
	return descriptor, nil
}

// ResolveAll resolves every option in declaration order. Corrections made
// while resolving one option are visible to the options resolved after it.
func (r *Registry) ResolveAll(ctx context.Context, store Store) (Form, error) {
	form := Form{Descriptors: make([]Descriptor, 0, len(r.order))}
	for _, key := range r.order {
		descriptor, err := r.Resolve(ctx, store, key)
		if err != nil {
			return Form{}, err
		}
		form.Descriptors = append(form.Descriptors, descriptor)
	}
	return form, nil
}

// Snapshot reads every option's current value from store.
func (r *Registry) Snapshot(ctx context.Context, store Store) (Values, error) {
	return r.read(ctx, store, r.order)
}

func (r *Registry) read(ctx context.Context, store Store, keys []string) (Values, error) {
	values := make(Values, len(keys))
	for _, key := range keys {
		value, err := store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("formopts: read %q: %w", key, err)
		}
		values[key] = value
	}
	return values, nil
}

// Schema resolves the full form and hands it to the configured generator.
func (r *Registry) Schema(ctx context.Context, store Store) (SchemaDocument, error) {
	form, err := r.ResolveAll(ctx, store)
	if err != nil {
		return SchemaDocument{}, err
	}
	return r.schemaGenerator().Generate(form)
}

func (r *Registry) schemaGenerator() SchemaGenerator {
	if r.cfg.schemaGenerator != nil {
		return r.cfg.schemaGenerator
	}
	return DefaultSchemaGenerator()
}
