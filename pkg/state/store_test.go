package state_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	formopts "github.com/goliatone/go-form-options"
	"github.com/goliatone/go-form-options/pkg/state"
)

type storeFactory struct {
	name string
	open func(t *testing.T) state.Store[formopts.Values]
}

func fileStoreFactory(ext string) storeFactory {
	return storeFactory{
		name: "file" + ext,
		open: func(t *testing.T) state.Store[formopts.Values] {
			store, err := state.NewFileStore[formopts.Values](filepath.Join(t.TempDir(), "settings"+ext))
			if err != nil {
				t.Fatalf("file store: %v", err)
			}
			return store
		},
	}
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{
			name: "memory",
			open: func(*testing.T) state.Store[formopts.Values] {
				return state.NewMemoryStore[formopts.Values]()
			},
		},
		fileStoreFactory(".yaml"),
		fileStoreFactory(".json"),
		fileStoreFactory(".cbor"),
		{
			name: "sqlite",
			open: func(t *testing.T) state.Store[formopts.Values] {
				store, err := state.OpenSQLiteStore[formopts.Values](filepath.Join(t.TempDir(), "settings.db"), state.SQLiteOptions{PoolSize: 2})
				if err != nil {
					t.Fatalf("sqlite store: %v", err)
				}
				t.Cleanup(func() {
					if err := store.Close(); err != nil {
						t.Errorf("close: %v", err)
					}
				})
				return store
			},
		},
	}
}

func TestStoreSaveLoadContract(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			ctx := context.Background()
			store := factory.open(t)
			ref := state.Ref{Domain: "video_transcoder"}

			_, _, ok, err := store.Load(ctx, ref)
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if ok {
				t.Fatalf("expected no snapshot before first save")
			}

			snapshot := formopts.Values{"mode": "standard", "video_codec": "h264", "keep_container": false}
			saved, err := store.Save(ctx, ref, snapshot, state.Meta{Extra: map[string]string{"source": "test"}})
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if saved.SnapshotID == "" || saved.ETag == "" || saved.UpdatedAt.IsZero() {
				t.Fatalf("expected stamped meta, got %+v", saved)
			}
			wantTag, err := state.ETag(snapshot)
			if err != nil {
				t.Fatalf("etag: %v", err)
			}
			if saved.ETag != wantTag {
				t.Fatalf("expected etag %q, got %q", wantTag, saved.ETag)
			}

			loaded, meta, ok, err := store.Load(ctx, ref)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !ok {
				t.Fatalf("expected snapshot after save")
			}
			if meta.SnapshotID != saved.SnapshotID || meta.ETag != saved.ETag {
				t.Fatalf("meta mismatch: saved %+v, loaded %+v", saved, meta)
			}
			if meta.Extra["source"] != "test" {
				t.Fatalf("expected extra preserved, got %+v", meta.Extra)
			}
			for key, want := range snapshot {
				if fmt.Sprint(loaded[key]) != fmt.Sprint(want) {
					t.Fatalf("%s: expected %v, got %v", key, want, loaded[key])
				}
			}

			other, _, ok, err := store.Load(ctx, state.Ref{Domain: "video_transcoder", Scope: "other"})
			if err != nil {
				t.Fatalf("load other scope: %v", err)
			}
			if ok || other != nil {
				t.Fatalf("expected scopes to be isolated, got %v", other)
			}
		})
	}
}

func TestStoreSaveRejectsStaleETag(t *testing.T) {
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			ctx := context.Background()
			store := factory.open(t)
			ref := state.Ref{Domain: "video_transcoder"}

			first, err := store.Save(ctx, ref, formopts.Values{"mode": "basic"}, state.Meta{})
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			second, err := store.Save(ctx, ref, formopts.Values{"mode": "standard"}, state.Meta{ETag: first.ETag})
			if err != nil {
				t.Fatalf("save with current etag: %v", err)
			}
			if second.SnapshotID == first.SnapshotID {
				t.Fatalf("expected a new snapshot id per save")
			}

			_, err = store.Save(ctx, ref, formopts.Values{"mode": "basic"}, state.Meta{ETag: first.ETag})
			if !errors.Is(err, state.ErrETagMismatch) {
				t.Fatalf("expected ErrETagMismatch, got %v", err)
			}

			loaded, _, _, err := store.Load(ctx, ref)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded["mode"] != "standard" {
				t.Fatalf("rejected save must not be persisted, got %v", loaded["mode"])
			}
		})
	}
}

func TestFileStoreReadsJSONWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.jsonc")
	doc := `{
  // hand edited
  "records": {
    "global/video_transcoder": {
      "meta": {"snapshot_id": "seed", "etag": "abc"},
      "snapshot": {
        "mode": "standard",
        "video_encoder": "hevc_qsv", /* picked for QSV hosts */
      },
    },
  },
}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := state.NewFileStore[formopts.Values](path)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if store.Codec().Name() != "json" {
		t.Fatalf("expected json codec, got %s", store.Codec().Name())
	}

	snapshot, meta, ok, err := store.Load(context.Background(), state.Ref{Domain: "video_transcoder"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || snapshot["video_encoder"] != "hevc_qsv" || meta.SnapshotID != "seed" {
		t.Fatalf("unexpected load: ok=%t snapshot=%v meta=%+v", ok, snapshot, meta)
	}
}

func TestFileStoreReportsDecodeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("records: [not, a, map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := state.NewFileStore[formopts.Values](path)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if _, _, _, err := store.Load(context.Background(), state.Ref{Domain: "video_transcoder"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCodecForUnsupportedExtension(t *testing.T) {
	if _, err := state.NewFileStore[formopts.Values]("settings.toml"); !errors.Is(err, state.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	for path, want := range map[string]string{
		"a.yml":   "yaml",
		"a.YAML":  "yaml",
		"a.json":  "json",
		"a.jsonc": "json",
		"a.cbor":  "cbor",
	} {
		codec, err := state.CodecFor(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if codec.Name() != want {
			t.Fatalf("%s: expected %s, got %s", path, want, codec.Name())
		}
	}
}

func TestMemoryStoreLen(t *testing.T) {
	store := state.NewMemoryStore[formopts.Values]()
	ctx := context.Background()
	for _, scope := range []string{"global", "user.1", "global"} {
		ref := state.Ref{Domain: "video_transcoder", Scope: scope}
		if _, err := store.Save(ctx, ref, formopts.Values{"mode": scope}, state.Meta{}); err != nil {
			t.Fatalf("save %s: %v", scope, err)
		}
	}
	if store.Len() != 2 {
		t.Fatalf("expected one snapshot per scope, got %d", store.Len())
	}
	if _, err := store.Save(ctx, state.Ref{}, formopts.Values{}, state.Meta{}); err == nil {
		t.Fatalf("expected invalid ref error")
	}
}
