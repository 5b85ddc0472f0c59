package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/botctl/internal/ports"
)

const subscriptionBuffer = 16

var ErrClosed = errors.New("memory store closed")

// Store is an in-process document store. Every write is delivered to all
// subscribers of the path as a full snapshot.
type Store struct {
	mu          sync.Mutex
	documents   map[string]map[string]any
	subscribers map[string]map[*subscription]struct{}
	failWrites  error
	writeDelay  time.Duration
	closed      bool
}

var _ ports.DocumentStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		documents:   map[string]map[string]any{},
		subscribers: map[string]map[*subscription]struct{}{},
	}
}

// FailWrites makes every following Write return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWrites = err
}

// SetWriteDelay delays every following Write by d before it is applied.
func (s *Store) SetWriteDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeDelay = d
}

func (s *Store) Subscribe(ctx context.Context, path string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		store:  s,
		path:   path,
		events: make(chan ports.SnapshotEvent, subscriptionBuffer),
	}
	if s.subscribers[path] == nil {
		s.subscribers[path] = map[*subscription]struct{}{}
	}
	s.subscribers[path][sub] = struct{}{}
	sub.deliver(s.snapshotLocked(path))

	return sub, nil
}

func (s *Store) Write(ctx context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	delay := s.writeDelay
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.failWrites != nil {
		return s.failWrites
	}

	doc, ok := s.documents[path]
	if !ok {
		doc = map[string]any{}
		s.documents[path] = doc
	}
	for key, value := range fields {
		if value == nil {
			delete(doc, key)
			continue
		}
		doc[key] = cloneValue(value)
	}

	s.broadcastLocked(path)
	return nil
}

// Get returns a copy of the stored document.
func (s *Store) Get(path string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[path]
	if !ok {
		return nil, false
	}
	return cloneMap(doc), true
}

// Delete removes the document and notifies subscribers that it is gone.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, path)
	s.broadcastLocked(path)
}

// Inject delivers an arbitrary event to the subscribers of path, for
// simulating stale, duplicated or failed deliveries.
func (s *Store) Inject(path string, event ports.SnapshotEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subscribers[path] {
		if event.Data != nil {
			event.Data = cloneMap(event.Data)
		}
		sub.deliver(event)
	}
}

func (s *Store) Subscribers(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subscribers[path])
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for path, subs := range s.subscribers {
		for sub := range subs {
			sub.closeLocked()
		}
		delete(s.subscribers, path)
	}
	return nil
}

func (s *Store) snapshotLocked(path string) ports.SnapshotEvent {
	doc, ok := s.documents[path]
	if !ok {
		return ports.SnapshotEvent{Exists: false}
	}
	return ports.SnapshotEvent{Exists: true, Data: cloneMap(doc)}
}

func (s *Store) broadcastLocked(path string) {
	for sub := range s.subscribers[path] {
		sub.deliver(s.snapshotLocked(path))
	}
}

type subscription struct {
	store  *Store
	path   string
	events chan ports.SnapshotEvent
	once   sync.Once
}

func (s *subscription) Snapshots() <-chan ports.SnapshotEvent {
	return s.events
}

func (s *subscription) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.store.subscribers[s.path], s)
	s.closeLocked()
	return nil
}

func (s *subscription) closeLocked() {
	s.once.Do(func() {
		close(s.events)
	})
}

// deliver never blocks the writer: a full buffer drops the oldest snapshot,
// which later full snapshots supersede anyway.
func (s *subscription) deliver(event ports.SnapshotEvent) {
	for {
		select {
		case s.events <- event:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
