package imagecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/moviedeck/internal/domain"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type stateRecorder struct {
	mu     sync.Mutex
	states []LoadState
}

func (r *stateRecorder) record(s LoadState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) get() []LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LoadState(nil), r.states...)
}

func TestLoaderSyncHitSkipsLoading(t *testing.T) {
	fetcher := newFakeFetcher(t)
	c := New(fetcher, nil, Options{})
	if _, err := c.Fetch(context.Background(), key("cached")); err != nil {
		t.Fatalf("warm Fetch failed: %v", err)
	}

	l := NewLoader(c, "/cached.png", domain.ImageSizeSmall)
	rec := &stateRecorder{}
	l.Subscribe(rec.record)
	l.Load()

	if l.State() != StateLoaded {
		t.Fatalf("state = %v, want loaded immediately", l.State())
	}
	if l.Image() == nil {
		t.Error("loaded loader should expose its image")
	}
	if got := rec.get(); len(got) != 1 || got[0] != StateLoaded {
		t.Errorf("observed states = %v, want [loaded]", got)
	}
	if n := fetcher.total(); n != 1 {
		t.Errorf("network calls = %d, want 1", n)
	}
}

func TestLoaderAsyncLoad(t *testing.T) {
	fetcher := newFakeFetcher(t)
	fetcher.gate = make(chan struct{})
	c := New(fetcher, nil, Options{})

	l := NewLoader(c, "/slow.png", domain.ImageSizeSmall)
	rec := &stateRecorder{}
	l.Subscribe(rec.record)

	l.Load()
	if l.State() != StateLoading {
		t.Fatalf("state = %v, want loading", l.State())
	}
	l.Load() // no-op while loading

	close(fetcher.gate)
	state, err := l.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if state != StateLoaded {
		t.Fatalf("state = %v, want loaded", state)
	}

	l.Load() // no-op once loaded
	if n := fetcher.total(); n != 1 {
		t.Errorf("network calls = %d, want 1", n)
	}
	got := rec.get()
	if len(got) != 2 || got[0] != StateLoading || got[1] != StateLoaded {
		t.Errorf("observed states = %v, want [loading loaded]", got)
	}
}

func TestLoaderMissingAndReset(t *testing.T) {
	fetcher := newFakeFetcher(t)
	fetcher.setErr(fmt.Errorf("404: %w", domain.ErrNetwork))
	c := New(fetcher, nil, Options{MissingCooldown: time.Hour})

	l := NewLoader(c, "/gone.png", domain.ImageSizeSmall)
	l.Load()
	state, err := l.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if state != StateMissing {
		t.Fatalf("state = %v, want missing", state)
	}
	if !errors.Is(l.Err(), domain.ErrMissingResource) {
		t.Errorf("Err = %v, want ErrMissingResource", l.Err())
	}

	// Missing is terminal until Reset
	l.Load()
	if l.State() != StateMissing {
		t.Errorf("state = %v after reload, want missing", l.State())
	}
	if n := fetcher.total(); n != 1 {
		t.Errorf("network calls = %d, want 1", n)
	}

	fetcher.setErr(nil)
	l.Reset()
	if l.State() != StateIdle {
		t.Fatalf("state = %v after Reset, want idle", l.State())
	}
	if c.IsMissing(key("gone")) {
		t.Error("Reset should clear the missing mark")
	}

	l.Load()
	state, err = l.Wait(waitCtx(t))
	if err != nil || state != StateLoaded {
		t.Fatalf("retry = (%v, %v), want loaded", state, err)
	}
	if n := fetcher.total(); n != 2 {
		t.Errorf("network calls = %d, want 2", n)
	}
}

func TestLoaderResetIgnoredUnlessMissing(t *testing.T) {
	fetcher := newFakeFetcher(t)
	c := New(fetcher, nil, Options{})

	l := NewLoader(c, "/ok.png", domain.ImageSizeSmall)
	l.Reset()
	if l.State() != StateIdle {
		t.Errorf("state = %v, want idle", l.State())
	}

	l.Load()
	if _, err := l.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	l.Reset()
	if l.State() != StateLoaded {
		t.Errorf("Reset on loaded loader changed state to %v", l.State())
	}
}

func TestLoaderEmptyPathIsMissing(t *testing.T) {
	fetcher := newFakeFetcher(t)
	c := New(fetcher, nil, Options{})

	l := NewLoader(c, "", domain.ImageSizeCover)
	l.Load()
	if l.State() != StateMissing {
		t.Errorf("state = %v, want missing", l.State())
	}
	if fetcher.total() != 0 {
		t.Error("empty path must not reach the network")
	}
}

func TestLoaderWaitBeforeLoad(t *testing.T) {
	c := New(newFakeFetcher(t), nil, Options{})
	l := NewLoader(c, "/x.png", domain.ImageSizeSmall)

	if _, err := l.Wait(waitCtx(t)); err == nil {
		t.Error("Wait on an idle loader should fail")
	}
}

func TestLoaderCloseReleasesPinAndWaiters(t *testing.T) {
	fetcher := newFakeFetcher(t)
	fetcher.gate = make(chan struct{})
	defer close(fetcher.gate)
	c := New(fetcher, nil, Options{})

	l := NewLoader(c, "/pinned.png", domain.ImageSizeSmall)
	l.Load()
	if s := c.Stats(); s.Pinned != 1 {
		t.Fatalf("pinned = %d, want 1", s.Pinned)
	}

	waited := make(chan struct{})
	go func() {
		l.Wait(context.Background())
		close(waited)
	}()

	l.Close()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("Close should release waiters")
	}
	if s := c.Stats(); s.Pinned != 0 {
		t.Errorf("pinned = %d after Close, want 0", s.Pinned)
	}
}
