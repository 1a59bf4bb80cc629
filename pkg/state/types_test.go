package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-form-options/pkg/state"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		ref     state.Ref
		want    string
		wantErr bool
	}{
		{name: "default scope", ref: state.Ref{Domain: "video_transcoder"}, want: "global/video_transcoder"},
		{name: "explicit scope", ref: state.Ref{Domain: "video_transcoder", Scope: "library-1"}, want: "library-1/video_transcoder"},
		{name: "missing domain", ref: state.Ref{Scope: "global"}, wantErr: true},
		{name: "domain with slash", ref: state.Ref{Domain: "a/b"}, wantErr: true},
		{name: "scope with space", ref: state.Ref{Domain: "a", Scope: "my scope"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("identifier: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

type countingStore[T any] struct {
	*state.MemoryStore[T]
	saves   int
	loadErr error
}

func (s *countingStore[T]) Load(ctx context.Context, ref state.Ref) (T, state.Meta, bool, error) {
	if s.loadErr != nil {
		var zero T
		return zero, state.Meta{}, false, s.loadErr
	}
	return s.MemoryStore.Load(ctx, ref)
}

func (s *countingStore[T]) Save(ctx context.Context, ref state.Ref, snapshot T, meta state.Meta) (state.Meta, error) {
	s.saves++
	return s.MemoryStore.Save(ctx, ref, snapshot, meta)
}

func TestMutateStartsFromZeroValue(t *testing.T) {
	store := &countingStore[map[string]any]{MemoryStore: state.NewMemoryStore[map[string]any]()}
	ref := state.Ref{Domain: "video_transcoder"}

	got, meta, err := state.Mutate(context.Background(), store, ref, state.Meta{}, func(v *map[string]any) error {
		if *v != nil {
			t.Fatalf("expected nil snapshot, got %v", *v)
		}
		*v = map[string]any{"mode": "standard"}
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if got["mode"] != "standard" {
		t.Fatalf("unexpected snapshot %v", got)
	}
	if meta.ETag == "" || meta.SnapshotID == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected stamped meta, got %+v", meta)
	}
}

func TestMutateMutatorErrorDoesNotSave(t *testing.T) {
	store := &countingStore[map[string]any]{MemoryStore: state.NewMemoryStore[map[string]any]()}
	boom := errors.New("rejected")

	_, _, err := state.Mutate(context.Background(), store, state.Ref{Domain: "d"}, state.Meta{}, func(*map[string]any) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected no save calls, got %d", store.saves)
	}
}

func TestMutateRejectsStaleETag(t *testing.T) {
	store := &countingStore[map[string]any]{MemoryStore: state.NewMemoryStore[map[string]any]()}
	ref := state.Ref{Domain: "d"}
	ctx := context.Background()

	if _, err := store.Save(ctx, ref, map[string]any{"a": 1}, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.saves = 0

	_, _, err := state.Mutate(ctx, store, ref, state.Meta{ETag: "stale"}, func(v *map[string]any) error {
		t.Fatalf("mutator must not run on etag mismatch")
		return nil
	})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected no save calls, got %d", store.saves)
	}
}

func TestMutatePropagatesLoadError(t *testing.T) {
	boom := errors.New("disk gone")
	store := &countingStore[map[string]any]{MemoryStore: state.NewMemoryStore[map[string]any](), loadErr: boom}

	_, _, err := state.Mutate(context.Background(), store, state.Ref{Domain: "d"}, state.Meta{}, func(*map[string]any) error {
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestETagIsDeterministic(t *testing.T) {
	a, err := state.ETag(map[string]any{"mode": "basic", "keep_container": true})
	if err != nil {
		t.Fatalf("etag: %v", err)
	}
	b, err := state.ETag(map[string]any{"keep_container": true, "mode": "basic"})
	if err != nil {
		t.Fatalf("etag: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal etags, got %q and %q", a, b)
	}
	c, err := state.ETag(map[string]any{"mode": "standard", "keep_container": true})
	if err != nil {
		t.Fatalf("etag: %v", err)
	}
	if a == c {
		t.Fatalf("expected different etags for different snapshots")
	}
	if len(a) != 64 {
		t.Fatalf("expected 32 byte hex digest, got %d chars", len(a))
	}
}
