package hydrate

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	formopts "github.com/goliatone/go-form-options"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Context identifies where a payload came from.
type Context struct {
	Domain string
	Source string
}

func (c Context) label() string {
	if c.Source != "" {
		return c.Source
	}
	if c.Domain != "" {
		return c.Domain
	}
	return "payload"
}

// PreHook lets callers rewrite the raw payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers validate the decoded values.
type PostHook func(Context, formopts.Values) error

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithPreHook applies hook prior to decoding.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithIgnoreUnknown drops keys the registry does not define instead of
// failing.
func WithIgnoreUnknown() DecoderOption {
	return func(d *Decoder) {
		d.ignoreUnknown = true
	}
}

// Decoder converts loosely typed settings payloads into values matching the
// registry's input kinds.
type Decoder struct {
	registry      *formopts.Registry
	preHooks      []PreHook
	postHooks     []PostHook
	ignoreUnknown bool
}

func NewDecoder(registry *formopts.Registry, opts ...DecoderOption) *Decoder {
	d := &Decoder{registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode coerces every payload entry to its option's kind.
func (d *Decoder) Decode(ctx Context, payload map[string]any) (formopts.Values, error) {
	if payload == nil {
		return nil, fmt.Errorf("hydrate: payload is nil for %s", ctx.label())
	}
	current := maps.Clone(payload)

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}

	values := make(formopts.Values, len(current))
	for key, raw := range current {
		if _, ok := d.registry.Lookup(key); !ok {
			if d.ignoreUnknown {
				continue
			}
			return nil, fmt.Errorf("hydrate: %s: unknown option %q", ctx.label(), key)
		}
		value, err := Coerce(d.registry.Input(key, current), raw)
		if err != nil {
			return nil, fmt.Errorf("hydrate: %s: option %q: %w", ctx.label(), key, err)
		}
		values[key] = value
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, values); err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.label(), err)
		}
	}
	return values, nil
}

// DecodeDocument parses a YAML, JSON or JSONC document and decodes it.
func (d *Decoder) DecodeDocument(ctx Context, format string, data []byte) (formopts.Values, error) {
	payload := map[string]any{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("hydrate: parse %s: %w", ctx.label(), err)
		}
	case "json", "jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &payload); err != nil {
			return nil, fmt.Errorf("hydrate: parse %s: %w", ctx.label(), err)
		}
	default:
		return nil, fmt.Errorf("hydrate: unsupported format %q", format)
	}
	return d.Decode(ctx, payload)
}

// Parse converts a command-line argument for key into a typed value.
func (d *Decoder) Parse(key, raw string) (any, error) {
	if _, ok := d.registry.Lookup(key); !ok {
		return nil, fmt.Errorf("hydrate: unknown option %q", key)
	}
	value, err := Coerce(d.registry.Input(key, nil), raw)
	if err != nil {
		return nil, fmt.Errorf("hydrate: option %q: %w", key, err)
	}
	return value, nil
}
