package dispatch

import (
	"log/slog"
	"reflect"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/state"
)

// RestoreLists loads saved lists, and the movies they reference, into the
// store. It reports whether a snapshot was found.
func RestoreLists(store *state.Store, lists domain.ListStore) bool {
	saved, ok := lists.LoadLists()
	if !ok {
		return false
	}
	if len(saved.Movies) > 0 {
		store.Dispatch(state.MergeMovies{Movies: saved.Movies})
	}
	store.Dispatch(state.RestoreLists{Lists: saved})
	return true
}

// PersistLists saves the lists section every time it changes and returns
// the func that stops it.
func PersistLists(store *state.Store, lists domain.ListStore, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	last := store.State().Lists
	return store.Subscribe(func(s state.AppState) {
		// Listeners are serialized by the store
		if reflect.DeepEqual(last, s.Lists) {
			return
		}
		last = s.Lists
		if err := lists.SaveLists(s.SavedLists()); err != nil {
			logger.Error("failed to save lists", "error", err)
			return
		}
		logger.Debug("saved lists", "wishlist", len(s.Lists.Wishlist), "seen", len(s.Lists.SeenList), "custom", len(s.Lists.Custom))
	})
}
