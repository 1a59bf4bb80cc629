package layering

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	formopts "github.com/goliatone/go-form-options"
)

type mapSource struct {
	values formopts.Values
	err    error
}

func (m *mapSource) Lookup(_ context.Context, key string) (any, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapSource) Set(_ context.Context, key string, value any) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = formopts.Values{}
	}
	m.values[key] = value
	return nil
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{in: "global", want: Global()},
		{in: "GLOBAL", want: Global()},
		{in: "user.42", want: User("42")},
		{in: "group.ops", want: Group("ops")},
		{in: "user", wantErr: true},
		{in: "global.x", wantErr: true},
		{in: "team.ops", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScopeChainOrdersStrongestFirst(t *testing.T) {
	chain := NewScopeChain(Global(), User("a"), Scope{}, Group("g"), User("a"), User("b"))
	want := []Scope{User("a"), User("b"), Group("g"), Global()}
	if got := chain.Ordered(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ordered = %v, want %v", got, want)
	}
	if chain.Strongest() != User("a") || chain.Weakest() != Global() {
		t.Fatalf("unexpected ends %v / %v", chain.Strongest(), chain.Weakest())
	}
	if (ScopeChain{}).Strongest() != (Scope{}) {
		t.Fatalf("empty chain should return the zero scope")
	}
}

func TestMergeValues(t *testing.T) {
	got := MergeValues(
		formopts.Values{"a": "user", "n": nil},
		formopts.Values{"a": "global", "b": "global", "n": 1},
	)
	want := formopts.Values{"a": "user", "b": "global", "n": nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	if len(MergeValues()) != 0 {
		t.Fatalf("empty merge should be empty")
	}
}

func TestStackResolution(t *testing.T) {
	global := &mapSource{values: formopts.Values{"codec": "h264", "keep": false}}
	user := &mapSource{values: formopts.Values{"codec": "hevc"}}
	stack, err := NewStack(
		formopts.Values{"codec": "hevc", "keep": true, "encoder": "libx265"},
		Layer{Scope: Global(), Source: global},
		Layer{Scope: User("42"), Source: user},
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	if got := stack.Scopes(); !reflect.DeepEqual(got, []Scope{User("42"), Global()}) {
		t.Fatalf("scopes = %v", got)
	}

	ctx := context.Background()
	tests := []struct {
		key  string
		want any
	}{
		{key: "codec", want: "hevc"},
		{key: "keep", want: false},
		{key: "encoder", want: "libx265"},
		{key: "missing", want: nil},
	}
	for _, tt := range tests {
		got, err := stack.Get(ctx, tt.key)
		if err != nil {
			t.Fatalf("get %s: %v", tt.key, err)
		}
		if got != tt.want {
			t.Fatalf("get %s = %v, want %v", tt.key, got, tt.want)
		}
	}

	if err := stack.Set(ctx, "keep", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if user.values["keep"] != true {
		t.Fatalf("writes should land in the strongest layer")
	}
	if global.values["keep"] != false {
		t.Fatalf("weaker layers must not change")
	}

	values, err := stack.Values(ctx, []string{"codec", "keep", "encoder"})
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	want := formopts.Values{"codec": "hevc", "keep": true, "encoder": "libx265"}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
}

func TestStackTrace(t *testing.T) {
	stack, err := NewStack(
		formopts.Values{"codec": "hevc"},
		Layer{Scope: Global(), Source: &mapSource{values: formopts.Values{"codec": "h264"}}},
		Layer{Scope: User("42"), Source: &mapSource{}},
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	trace, err := stack.Trace(context.Background(), "codec")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Effective != "h264" || trace.Default != "hevc" {
		t.Fatalf("trace = %+v", trace)
	}
	if len(trace.Layers) != 2 || trace.Layers[0].Found || !trace.Layers[1].Found {
		t.Fatalf("layers = %+v", trace.Layers)
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["key"] != "codec" || decoded["effective"] != "h264" {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestNewStackValidation(t *testing.T) {
	src := &mapSource{}
	tests := []struct {
		name   string
		layers []Layer
		want   error
	}{
		{name: "empty", want: ErrNoLayers},
		{name: "duplicate", layers: []Layer{{Scope: User("a"), Source: src}, {Scope: User("a"), Source: src}}, want: ErrDuplicateScope},
		{name: "unknown", layers: []Layer{{Scope: Scope{}, Source: src}}, want: ErrUnknownScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStack(nil, tt.layers...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := NewStack(nil, Layer{Scope: Global()}); err == nil {
		t.Fatalf("expected error for a layer without source")
	}
}

func TestStackPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("disk gone")
	stack, err := NewStack(nil, Layer{Scope: Global(), Source: &mapSource{err: boom}})
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	ctx := context.Background()
	if _, err := stack.Get(ctx, "codec"); !errors.Is(err, boom) {
		t.Fatalf("get err = %v", err)
	}
	if err := stack.Set(ctx, "codec", "h264"); !errors.Is(err, boom) {
		t.Fatalf("set err = %v", err)
	}
	if _, err := stack.Trace(ctx, "codec"); !errors.Is(err, boom) {
		t.Fatalf("trace err = %v", err)
	}
}
