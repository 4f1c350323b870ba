package state

import (
	"fmt"
	"log/slog"
	"sync"
)

// Listener receives every published state.
type Listener func(AppState)

// Store owns the current AppState. Dispatch is safe for concurrent use;
// each reduce-and-publish step is atomic.
type Store struct {
	logger *slog.Logger

	mu        sync.Mutex // Protects state, listeners, pending, notifying
	state     AppState
	listeners map[int]Listener
	nextID    int
	pending   []AppState
	notifying bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store holding initial.
func NewStore(initial AppState, opts ...Option) *Store {
	s := &Store{
		logger:    slog.Default(),
		state:     initial,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state and notifies listeners.
// Actions failing their precondition are logged and publish nothing.
//
// Listeners run outside the lock in registration order and may dispatch;
// published states are delivered in the order they were produced.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	if err := CheckPrecondition(s.state, a); err != nil {
		s.mu.Unlock()
		s.logger.Warn("action ignored", "action", actionName(a), "error", err)
		return
	}
	s.state = Reduce(s.state, a)
	s.pending = append(s.pending, s.state)
	if s.notifying {
		// The goroutine already notifying delivers this state too
		s.mu.Unlock()
		return
	}
	s.notifying = true
	s.mu.Unlock()

	s.logger.Debug("dispatched action", "action", actionName(a))
	s.drain()
}

func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.notifying = false
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.snapshotListeners()
		s.mu.Unlock()

		for _, fn := range listeners {
			s.notify(fn, next)
		}
	}
}

// notify isolates a panicking listener so delivery to the others, and to
// every later transition, continues.
func (s *Store) notify(fn Listener, st AppState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state listener panicked", "panic", r)
		}
	}()
	fn(st)
}

func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Subscribe registers fn and returns a func that unregisters it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func actionName(a Action) string {
	return fmt.Sprintf("%T", a)
}
