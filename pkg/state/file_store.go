package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every snapshot of one file, keyed by Ref.Identifier(). The
// codec is picked from the file extension; see CodecFor.
type FileStore[T any] struct {
	mu    sync.Mutex
	path  string
	codec Codec
}

type fileDocument[T any] struct {
	Records map[string]fileRecord[T] `json:"records" yaml:"records"`
}

type fileRecord[T any] struct {
	Meta     Meta `json:"meta" yaml:"meta"`
	Snapshot T    `json:"snapshot" yaml:"snapshot"`
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore[T any](path string) (*FileStore[T], error) {
	if path == "" {
		return nil, fmt.Errorf("state: path is required")
	}
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	return &FileStore[T]{path: path, codec: codec}, nil
}

func (s *FileStore[T]) Path() string { return s.path }

func (s *FileStore[T]) Codec() Codec { return s.codec }

func (s *FileStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.Lock()
	doc, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return zero, Meta{}, false, err
	}
	record, ok := doc.Records[key]
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.Snapshot, record.Meta, true, nil
}

func (s *FileStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Meta{}, err
	}
	if current, ok := doc.Records[key]; ok {
		if err := checkETag(meta.ETag, current.Meta.ETag); err != nil {
			return Meta{}, err
		}
	}
	stamped, err := stamp(snapshot, meta)
	if err != nil {
		return Meta{}, err
	}
	doc.Records[key] = fileRecord[T]{Meta: stamped, Snapshot: snapshot}
	if err := s.write(doc); err != nil {
		return Meta{}, err
	}
	return cloneMeta(stamped), nil
}

func (s *FileStore[T]) read() (fileDocument[T], error) {
	doc := fileDocument[T]{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc.Records = map[string]fileRecord[T]{}
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("state: read %s: %w", s.path, err)
	}
	if len(data) > 0 {
		if err := s.codec.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("state: decode %s: %w", s.path, err)
		}
	}
	if doc.Records == nil {
		doc.Records = map[string]fileRecord[T]{}
	}
	return doc, nil
}

// write replaces the file atomically through a sibling temp file.
func (s *FileStore[T]) write(doc fileDocument[T]) error {
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("state: write %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", s.path, err)
	}
	return nil
}
