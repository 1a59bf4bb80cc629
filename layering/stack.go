package layering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	formopts "github.com/goliatone/go-form-options"
)

var (
	// ErrNoLayers is returned when a stack is built without any layer.
	ErrNoLayers = errors.New("layering: stack must include at least one layer")
	// ErrDuplicateScope is returned when two layers share a scope name.
	ErrDuplicateScope = errors.New("layering: scopes must be unique")
	// ErrUnknownScope is returned for layers whose scope level is unknown.
	ErrUnknownScope = errors.New("layering: scope level is unknown")
)

// Source is the per-scope storage a layer reads from. Lookup reports whether
// the scope stores its own value for key; defaults are the stack's concern.
type Source interface {
	Lookup(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Layer pairs a scope with its storage.
type Layer struct {
	Scope  Scope
	Source Source
}

// Stack resolves settings across scopes. It implements formopts.Store: reads
// return the strongest stored value, falling back to the defaults, and writes
// go to the strongest layer.
type Stack struct {
	layers   []Layer
	defaults formopts.Values
}

// NewStack validates the layers and orders them strongest first.
func NewStack(defaults formopts.Values, layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	scopes := make([]Scope, 0, len(layers))
	byName := make(map[string]Layer, len(layers))
	for _, layer := range layers {
		if layer.Source == nil {
			return nil, fmt.Errorf("layering: layer %q has no source", layer.Scope.Name())
		}
		if layer.Scope.Level == ScopeLevelUnknown {
			return nil, fmt.Errorf("%w: %+v", ErrUnknownScope, layer.Scope)
		}
		name := layer.Scope.Name()
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, name)
		}
		byName[name] = layer
		scopes = append(scopes, layer.Scope)
	}

	chain := NewScopeChain(scopes...)
	ordered := make([]Layer, 0, len(layers))
	for _, scope := range chain.Ordered() {
		ordered = append(ordered, byName[scope.Name()])
	}

	copied := make(formopts.Values, len(defaults))
	for k, v := range defaults {
		copied[k] = v
	}
	return &Stack{layers: ordered, defaults: copied}, nil
}

// Scopes returns the layer scopes from strongest to weakest.
func (s *Stack) Scopes() []Scope {
	out := make([]Scope, len(s.layers))
	for i, layer := range s.layers {
		out[i] = layer.Scope
	}
	return out
}

// Get returns the value of the strongest layer storing key, or the default.
func (s *Stack) Get(ctx context.Context, key string) (any, error) {
	for _, layer := range s.layers {
		value, ok, err := layer.Source.Lookup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("layering: %s: %w", layer.Scope.Name(), err)
		}
		if ok {
			return value, nil
		}
	}
	return s.defaults[key], nil
}

// Set writes key to the strongest layer.
func (s *Stack) Set(ctx context.Context, key string, value any) error {
	top := s.layers[0]
	if err := top.Source.Set(ctx, key, value); err != nil {
		return fmt.Errorf("layering: %s: %w", top.Scope.Name(), err)
	}
	return nil
}

// Trace captures which layers hold a value for a key.
type Trace struct {
	Key     string       `json:"key"`
	Layers  []Provenance `json:"layers"`
	Default any          `json:"default,omitempty"`
	// Effective is the value Get returns.
	Effective any `json:"effective,omitempty"`
}

// Provenance is one layer's contribution to a traced key.
type Provenance struct {
	Scope Scope `json:"scope"`
	Value any   `json:"value,omitempty"`
	Found bool  `json:"found"`
}

// ToJSON serialises the trace.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// Trace reports every layer's stored value for key, strongest first.
func (s *Stack) Trace(ctx context.Context, key string) (Trace, error) {
	trace := Trace{
		Key:     key,
		Layers:  make([]Provenance, 0, len(s.layers)),
		Default: s.defaults[key],
	}
	resolved := false
	for _, layer := range s.layers {
		value, ok, err := layer.Source.Lookup(ctx, key)
		if err != nil {
			return Trace{}, fmt.Errorf("layering: %s: %w", layer.Scope.Name(), err)
		}
		trace.Layers = append(trace.Layers, Provenance{Scope: layer.Scope, Value: value, Found: ok})
		if ok && !resolved {
			trace.Effective = value
			resolved = true
		}
	}
	if !resolved {
		trace.Effective = trace.Default
	}
	return trace, nil
}

// Values returns the effective value of every key in keys.
func (s *Stack) Values(ctx context.Context, keys []string) (formopts.Values, error) {
	layers := make([]formopts.Values, 0, len(s.layers)+1)
	for _, layer := range s.layers {
		values := formopts.Values{}
		for _, key := range keys {
			value, ok, err := layer.Source.Lookup(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("layering: %s: %w", layer.Scope.Name(), err)
			}
			if ok {
				values[key] = value
			}
		}
		layers = append(layers, values)
	}
	fallback := formopts.Values{}
	for _, key := range keys {
		fallback[key] = s.defaults[key]
	}
	layers = append(layers, fallback)
	return MergeValues(layers...), nil
}
