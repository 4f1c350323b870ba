package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/imagecache"
	"github.com/mmcdole/moviedeck/internal/state"
)

// StateObserver adapts store notifications to a channel for Bubble Tea.
// Only the newest snapshot is kept when the UI falls behind.
type StateObserver struct {
	ch chan state.AppState
}

// NewStateObserver creates a new channel-based observer.
func NewStateObserver() *StateObserver {
	return &StateObserver{ch: make(chan state.AppState, 1)}
}

// OnState is a state.Listener. It never blocks the dispatching goroutine.
func (o *StateObserver) OnState(s state.AppState) {
	select {
	case o.ch <- s:
		return
	default:
	}
	// Replace the stale snapshot
	select {
	case <-o.ch:
	default:
	}
	select {
	case o.ch <- s:
	default:
	}
}

// Listen returns a command that waits for the next snapshot
func (o *StateObserver) Listen() tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: <-o.ch}
	}
}

// PosterObserver forwards loader state changes to the UI.
type PosterObserver struct {
	ch chan PosterMsg
}

// NewPosterObserver creates a poster observer with room for a few pending updates.
func NewPosterObserver() *PosterObserver {
	return &PosterObserver{ch: make(chan PosterMsg, 16)}
}

// Watch subscribes to a loader and returns the unsubscribe func.
func (o *PosterObserver) Watch(l *imagecache.Loader) func() {
	key := l.Key()
	return l.Subscribe(func(s imagecache.LoadState) {
		select {
		case o.ch <- PosterMsg{Key: key, State: s}:
		default: // the next render reads loader state directly
		}
	})
}

// Listen returns a command that waits for the next poster update
func (o *PosterObserver) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-o.ch
	}
}

// posterKey is the cache key used for a movie's card poster
func posterKey(m domain.Movie) domain.ImageKey {
	return domain.ImageKey{Path: m.PosterPath, Size: domain.ImageSizeSmall}
}
