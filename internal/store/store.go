// Package store is a small observable state container. A Store owns one
// value of type T, mutates it only through Update/Set, and notifies
// subscribers synchronously after every mutation.
package store

import (
	"sort"
	"sync"
)

type Store[T any] struct {
	mu    sync.Mutex
	state T
	subs  map[int]func(T)
	next  int
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{state: initial, subs: make(map[int]func(T))}
}

// Get returns a copy of the current state.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to the state under the lock, then notifies
// subscribers with the resulting value. Subscribers run outside the lock
// and may call back into the store.
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Set replaces the state wholesale.
func (s *Store[T]) Set(v T) {
	s.Update(func(st *T) { *st = v })
}

// Subscribe registers fn and returns a function that removes it. Calling
// the returned function more than once is safe.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// subscribers returns callbacks in registration order. Caller holds mu.
func (s *Store[T]) subscribers() []func(T) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}
