package imagecache

import (
	"context"
	"errors"
	"sync"

	"github.com/mmcdole/moviedeck/internal/domain"
)

// LoadState is the observable state of a Loader.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateMissing
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateMissing:
		return "missing"
	default:
		return "idle"
	}
}

// Loader drives a single logical image request (path + size) against a Cache.
// Consumers observe state changes; Load never returns a value.
type Loader struct {
	cache *Cache
	key   domain.ImageKey

	mu        sync.Mutex
	state     LoadState
	image     *domain.Image
	err       error
	started   bool
	pinned    bool
	closed    bool
	done      chan struct{} // closed when the current load settles
	listeners map[int]func(LoadState)
	nextID    int
}

// NewLoader creates an idle loader. An empty path is allowed and loads as missing.
func NewLoader(cache *Cache, path string, size domain.ImageSize) *Loader {
	return &Loader{
		cache:     cache,
		key:       domain.ImageKey{Path: path, Size: size},
		done:      make(chan struct{}),
		listeners: make(map[int]func(LoadState)),
	}
}

// Key returns the cache key this loader requests.
func (l *Loader) Key() domain.ImageKey { return l.key }

// Load starts loading. Calling it while loading or loaded is a no-op.
// A cache hit settles synchronously.
func (l *Loader) Load() {
	l.mu.Lock()
	if l.closed || l.started {
		l.mu.Unlock()
		return
	}
	l.started = true

	if l.key.Path == "" {
		l.mu.Unlock()
		l.settle(nil, domain.ErrMissingResource)
		return
	}

	if !l.pinned {
		l.cache.Pin(l.key)
		l.pinned = true
	}
	l.mu.Unlock()

	if img, _, ok := l.cache.LookupSync(l.key); ok {
		l.settle(img, nil)
		return
	}

	l.transition(StateLoading)
	go func() {
		img, err := l.cache.Fetch(context.Background(), l.key)
		l.settle(img, err)
	}()
}

// settle moves the loader to loaded or missing and wakes waiters.
func (l *Loader) settle(img *domain.Image, err error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	next := StateLoaded
	if err != nil || img == nil {
		next = StateMissing
		if err == nil {
			err = domain.ErrMissingResource
		}
	}
	l.state = next
	l.image = img
	l.err = err
	done := l.done
	listeners := l.snapshotListeners()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	close(done)
}

func (l *Loader) transition(next LoadState) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.state = next
	listeners := l.snapshotListeners()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func (l *Loader) snapshotListeners() []func(LoadState) {
	out := make([]func(LoadState), 0, len(l.listeners))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// State returns the current state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Image returns the loaded image, or nil unless the state is loaded.
func (l *Loader) Image() *domain.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.image
}

// Err returns the failure behind a missing state.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
func (l *Loader) Subscribe(fn func(LoadState)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// Wait blocks until the current load settles or ctx is done.
func (l *Loader) Wait(ctx context.Context) (LoadState, error) {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return StateIdle, errors.New("loader has not been started")
	}
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		return l.State(), nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}

// Reset returns a missing loader to idle and clears the cache's missing mark
// so the next Load retries the network. Other states are left alone.
func (l *Loader) Reset() {
	l.mu.Lock()
	if l.closed || l.state != StateMissing {
		l.mu.Unlock()
		return
	}
	l.state = StateIdle
	l.started = false
	l.image = nil
	l.err = nil
	l.done = make(chan struct{})
	listeners := l.snapshotListeners()
	l.mu.Unlock()

	l.cache.Retry(l.key)
	for _, fn := range listeners {
		fn(StateIdle)
	}
}

// Close releases the loader's pin. An in-flight fetch keeps running for
// other waiters; its result is dropped by this loader.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	pinned := l.pinned
	l.pinned = false
	l.listeners = make(map[int]func(LoadState))
	if l.started && l.state != StateLoaded && l.state != StateMissing {
		close(l.done) // release waiters; the fetch result will be dropped
	}
	l.mu.Unlock()

	if pinned {
		l.cache.Unpin(l.key)
	}
}
