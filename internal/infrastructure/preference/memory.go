package preference

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory implementation of Store.
// Suitable for tests and development without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string][]*memoryWatcher
	closed   bool
}

type memoryWatcher struct {
	ch   chan string
	done <-chan struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]string),
		watchers: make(map[string][]*memoryWatcher),
	}
}

// Get returns the stored value and whether the key exists.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrStoreClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores the value and notifies watchers of the key in commit order.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.values[key] = value

	// Delivery happens under the lock so concurrent Sets reach every
	// watcher in the same order they were committed.
	kept := s.watchers[key][:0]
	for _, w := range s.watchers[key] {
		select {
		case <-w.done:
			close(w.ch)
			continue
		default:
		}
		select {
		case w.ch <- value:
		default:
			// Slow watcher: drop the oldest pending value to keep
			// order without blocking the writer.
			select {
			case <-w.ch:
			default:
			}
			w.ch <- value
		}
		kept = append(kept, w)
	}
	s.watchers[key] = kept
	return nil
}

// Watch returns a channel receiving every committed value for the key until
// ctx is cancelled.
func (s *MemoryStore) Watch(ctx context.Context, key string) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	w := &memoryWatcher{
		ch:   make(chan string, 16),
		done: ctx.Done(),
	}
	s.watchers[key] = append(s.watchers[key], w)
	return w.ch, nil
}

// Close releases the store. Watch channels are closed lazily on the next Set.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
