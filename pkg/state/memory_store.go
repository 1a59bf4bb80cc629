package state

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process. ETags and snapshot ids are stamped
// the same way the file and SQLite stores do, so it stands in for them in
// tests and examples.
type MemoryStore[T any] struct {
	mu   sync.RWMutex
	data map[string]entry[T]
}

type entry[T any] struct {
	value T
	meta  Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{data: make(map[string]entry[T])}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error) {
	id, err := ref.Identifier()
	if err != nil {
		return snapshot, meta, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return snapshot, meta, false, nil
	}
	return e.value, cloneMeta(e.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	id, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[id]; ok {
		if err := checkETag(meta.ETag, e.meta.ETag); err != nil {
			return Meta{}, err
		}
	}
	stamped, err := stamp(snapshot, meta)
	if err != nil {
		return Meta{}, err
	}
	s.data[id] = entry[T]{value: snapshot, meta: stamped}
	return cloneMeta(stamped), nil
}

// Len reports how many snapshots are held.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
