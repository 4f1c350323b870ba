package state

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/mmcdole/moviedeck/internal/domain"
)

type unknownAction struct{}

func (unknownAction) action() {}

func movies(ids ...int) []domain.Movie {
	out := make([]domain.Movie, len(ids))
	for i, id := range ids {
		out[i] = domain.Movie{ID: id, Title: "Movie"}
	}
	return out
}

func intp(v int) *int { return &v }

func withQueue(ids ...int) AppState {
	s := NewAppState()
	s.Discover.Queue = ids
	return s
}

func TestReduceUnknownActionUnchanged(t *testing.T) {
	s := withQueue(1, 2, 3)
	s = Reduce(s, MergeMovies{Movies: movies(1, 2, 3)})
	s = Reduce(s, CreateList{Name: "Noir"})

	if got := Reduce(s, unknownAction{}); !reflect.DeepEqual(got, s) {
		t.Errorf("unknown action changed state:\n got %+v\nwant %+v", got, s)
	}
	if got := Reduce(s, nil); !reflect.DeepEqual(got, s) {
		t.Error("nil action changed state")
	}
}

func TestReduceIsTotal(t *testing.T) {
	actions := []Action{
		MergeMovies{}, MergeGenres{}, AddToWishlist{MovieID: 1}, AddToSeenList{MovieID: 1},
		RemoveFromWishlist{MovieID: 9}, RemoveFromSeenList{MovieID: 9}, CreateList{},
		DeleteList{ListID: 42}, AddMovieToList{ListID: 42, MovieID: 1},
		RemoveMovieFromList{ListID: 42, MovieID: 1}, RestoreLists{},
		FetchRandomDiscover{}, DiscoverFetched{Generation: 99}, DiscoverFetchFailed{},
		PushRandomDiscover{MovieID: 1}, PopRandomDiscover{}, ResetRandomDiscover{},
		SetDiscoverFilter{}, FetchGenres{}, GenresFetchFailed{},
	}
	// Zero-valued state (nil maps) must not panic either
	for _, s := range []AppState{{}, NewAppState(), withQueue(1, 2)} {
		for _, a := range actions {
			Reduce(s, a)
		}
	}
}

func TestReduceDoesNotMutatePrevious(t *testing.T) {
	prev := withQueue(5, 8, 12)
	prev.Lists.Wishlist = []int{1}
	snapshot := withQueue(5, 8, 12)
	snapshot.Lists.Wishlist = []int{1}

	next := Reduce(prev, PopRandomDiscover{})
	next = Reduce(next, PushRandomDiscover{MovieID: 99})
	next = Reduce(next, AddToSeenList{MovieID: 1})
	Reduce(next, MergeMovies{Movies: movies(7)})

	if !reflect.DeepEqual(prev, snapshot) {
		t.Errorf("previous state was mutated: %+v", prev)
	}
}

func TestAddToWishlistIdempotent(t *testing.T) {
	once := Reduce(NewAppState(), AddToWishlist{MovieID: 7})
	twice := Reduce(once, AddToWishlist{MovieID: 7})

	if !reflect.DeepEqual(once.Lists, twice.Lists) {
		t.Errorf("second add changed lists: %+v vs %+v", once.Lists, twice.Lists)
	}
	if !slices.Equal(twice.Lists.Wishlist, []int{7}) {
		t.Errorf("wishlist = %v, want [7]", twice.Lists.Wishlist)
	}
}

func TestWishlistAndSeenAreExclusive(t *testing.T) {
	s := Reduce(NewAppState(), AddToWishlist{MovieID: 7})
	s = Reduce(s, AddToSeenList{MovieID: 7})

	if s.Lists.InWishlist(7) {
		t.Error("seen movie should leave the wishlist")
	}
	if !s.Lists.InSeenList(7) {
		t.Error("movie should be on the seen list")
	}

	s = Reduce(s, AddToWishlist{MovieID: 7})
	if !s.Lists.InWishlist(7) || s.Lists.InSeenList(7) {
		t.Errorf("lists = %+v, want wishlist only", s.Lists)
	}

	s = Reduce(s, RemoveFromWishlist{MovieID: 7})
	if s.Lists.InWishlist(7) {
		t.Error("RemoveFromWishlist should remove the movie")
	}
}

func TestCustomLists(t *testing.T) {
	s := Reduce(NewAppState(), CreateList{Name: "  Noir  "})
	s = Reduce(s, CreateList{Name: "Westerns", Cover: intp(3)})

	noir, ok := s.Lists.List(1)
	if !ok || noir.Name != "Noir" {
		t.Fatalf("list 1 = %+v, %v", noir, ok)
	}
	if westerns, _ := s.Lists.List(2); westerns.Cover == nil || *westerns.Cover != 3 {
		t.Errorf("explicit cover not kept: %+v", westerns)
	}
	if s.Lists.NextListID != 3 {
		t.Errorf("NextListID = %d, want 3", s.Lists.NextListID)
	}

	s = Reduce(s, AddMovieToList{ListID: 1, MovieID: 10})
	s = Reduce(s, AddMovieToList{ListID: 1, MovieID: 11})
	s = Reduce(s, AddMovieToList{ListID: 1, MovieID: 10})

	noir, _ = s.Lists.List(1)
	if !slices.Equal(noir.Movies, []int{10, 11}) {
		t.Errorf("movies = %v, want [10 11]", noir.Movies)
	}
	if noir.Cover == nil || *noir.Cover != 10 {
		t.Errorf("cover = %v, want first movie 10", noir.Cover)
	}

	s = Reduce(s, RemoveMovieFromList{ListID: 1, MovieID: 10})
	noir, _ = s.Lists.List(1)
	if noir.Cover == nil || *noir.Cover != 11 {
		t.Errorf("cover = %v, want next movie 11", noir.Cover)
	}

	s = Reduce(s, RemoveMovieFromList{ListID: 1, MovieID: 11})
	noir, _ = s.Lists.List(1)
	if noir.Cover != nil || len(noir.Movies) != 0 {
		t.Errorf("emptied list = %+v, want no cover", noir)
	}

	s = Reduce(s, DeleteList{ListID: 1})
	if _, ok := s.Lists.List(1); ok {
		t.Error("list 1 should be deleted")
	}

	s = Reduce(s, CreateList{Name: "Later"})
	if _, ok := s.Lists.List(3); !ok {
		t.Error("ids are not reused after delete")
	}
}

func TestRestoreLists(t *testing.T) {
	s := Reduce(NewAppState(), RestoreLists{Lists: domain.SavedLists{
		Wishlist: []int{1, 2, 2},
		SeenList: []int{2, 3},
		Custom:   []domain.CustomList{{ID: 4, Name: "Saved", Movies: []int{5, 5, 6}}},
	}})

	if !slices.Equal(s.Lists.Wishlist, []int{1, 2}) {
		t.Errorf("wishlist = %v", s.Lists.Wishlist)
	}
	if !slices.Equal(s.Lists.SeenList, []int{3}) {
		t.Errorf("seen = %v, want [3]", s.Lists.SeenList)
	}
	if cl, _ := s.Lists.List(4); !slices.Equal(cl.Movies, []int{5, 6}) {
		t.Errorf("custom movies = %v", cl.Movies)
	}
	if s.Lists.NextListID != 5 {
		t.Errorf("NextListID = %d, want 5", s.Lists.NextListID)
	}

	roundTrip := Reduce(NewAppState(), RestoreLists{Lists: s.Lists.Saved()})
	if !reflect.DeepEqual(roundTrip.Lists, s.Lists) {
		t.Errorf("Saved/Restore mismatch:\n got %+v\nwant %+v", roundTrip.Lists, s.Lists)
	}
}

func TestMergeMoviesFullReplace(t *testing.T) {
	s := Reduce(NewAppState(), MergeMovies{Movies: []domain.Movie{
		{ID: 1, Title: "Old", Overview: "kept?"},
		{ID: 2, Title: "Other"},
	}})
	s = Reduce(s, MergeMovies{Movies: []domain.Movie{{ID: 1, Title: "New"}}})

	m, ok := s.Movies.Movie(1)
	if !ok || m.Title != "New" || m.Overview != "" {
		t.Errorf("movie 1 = %+v, want full replace", m)
	}
	if _, ok := s.Movies.Movie(2); !ok {
		t.Error("untouched ids must survive a merge")
	}
	if got := s.Movies.MoviesByIDs([]int{2, 99, 1}); len(got) != 2 || got[0].ID != 2 {
		t.Errorf("MoviesByIDs = %+v", got)
	}
}

func TestPopThenUndo(t *testing.T) {
	s := withQueue(5, 8, 12)

	s = Reduce(s, PopRandomDiscover{})
	if !slices.Equal(s.Discover.Queue, []int{5, 8}) {
		t.Fatalf("queue = %v, want [5 8]", s.Discover.Queue)
	}
	if s.Discover.Previous == nil || *s.Discover.Previous != 12 {
		t.Fatalf("previous = %v, want 12", s.Discover.Previous)
	}

	s = Reduce(s, PushRandomDiscover{MovieID: 12})
	if !slices.Equal(s.Discover.Queue, []int{5, 8, 12}) {
		t.Errorf("queue = %v, want [5 8 12]", s.Discover.Queue)
	}
	if s.Discover.Previous != nil {
		t.Errorf("previous = %v, want absent", *s.Discover.Previous)
	}
}

func TestPushDuplicateAndPopEmpty(t *testing.T) {
	s := withQueue(1, 2)
	if got := Reduce(s, PushRandomDiscover{MovieID: 1}); !slices.Equal(got.Discover.Queue, []int{1, 2}) {
		t.Errorf("duplicate push changed queue to %v", got.Discover.Queue)
	}

	empty := NewAppState()
	if got := Reduce(empty, PopRandomDiscover{}); !reflect.DeepEqual(got, empty) {
		t.Error("pop on empty queue should leave state unchanged")
	}
}

func TestPushPopLengthProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 200; trial++ {
		s := NewAppState()
		pushes, pops := 0, 0
		var lastPopped *int
		next := 1000

		for step := 0; step < 40; step++ {
			if pops < pushes && rng.IntN(2) == 0 {
				top, _ := s.Discover.Top()
				s = Reduce(s, PopRandomDiscover{})
				pops++
				lastPopped = &top
			} else {
				s = Reduce(s, PushRandomDiscover{MovieID: next})
				next++
				pushes++
				lastPopped = nil
			}

			if got := len(s.Discover.Queue); got != pushes-pops {
				t.Fatalf("trial %d: len = %d, want %d", trial, got, pushes-pops)
			}
			switch {
			case lastPopped == nil && s.Discover.Previous != nil:
				t.Fatalf("trial %d: previous = %d, want absent", trial, *s.Discover.Previous)
			case lastPopped != nil && (s.Discover.Previous == nil || *s.Discover.Previous != *lastPopped):
				t.Fatalf("trial %d: previous = %v, want %d", trial, s.Discover.Previous, *lastPopped)
			}
		}
	}
}

func TestDiscoverFetchFillsQueue(t *testing.T) {
	filter := domain.DiscoverFilter{Year: 2020}
	s := Reduce(NewAppState(), FetchRandomDiscover{Filter: filter})
	if s.Discover.InFlight != 1 {
		t.Fatalf("InFlight = %d, want 1", s.Discover.InFlight)
	}
	if s.Discover.Filter == nil || !s.Discover.Filter.Equal(filter) {
		t.Fatalf("filter = %v, want adopted 2020", s.Discover.Filter)
	}

	s = Reduce(s, DiscoverFetched{
		Generation: s.Discover.Generation,
		Filter:     filter,
		Movies:     movies(1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
	})

	if len(s.Discover.Queue) != 10 {
		t.Fatalf("queue length = %d, want 10", len(s.Discover.Queue))
	}
	seen := map[int]bool{}
	for _, id := range s.Discover.Queue {
		if seen[id] {
			t.Fatalf("duplicate id %d in %v", id, s.Discover.Queue)
		}
		seen[id] = true
	}
	if top, _ := s.Discover.Top(); top != 1 {
		t.Errorf("top = %d, want first fetched movie 1", top)
	}
	if len(s.Movies.Movies) != 10 {
		t.Errorf("entities = %d, want 10", len(s.Movies.Movies))
	}
	if s.Discover.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0", s.Discover.InFlight)
	}
}

func TestDiscoverFetchSkipsQueuedAndSwiped(t *testing.T) {
	s := withQueue(1)
	s = Reduce(s, AddToWishlist{MovieID: 2})
	s = Reduce(s, AddToSeenList{MovieID: 3})
	s = Reduce(s, FetchRandomDiscover{})

	s = Reduce(s, DiscoverFetched{Movies: movies(1, 2, 3, 4, 4, 5)})

	if !slices.Equal(s.Discover.Queue, []int{5, 4, 1}) {
		t.Errorf("queue = %v, want [5 4 1] with 1 still on top", s.Discover.Queue)
	}
}

func TestStaleDiscoverResultIgnored(t *testing.T) {
	s := Reduce(NewAppState(), FetchRandomDiscover{Filter: domain.DiscoverFilter{Year: 1999}})
	started := s.Discover.Generation

	s = Reduce(s, SetDiscoverFilter{Filter: domain.DiscoverFilter{Year: 2005}})
	s = Reduce(s, DiscoverFetched{Generation: started, Movies: movies(1, 2)})

	if len(s.Discover.Queue) != 0 {
		t.Errorf("stale result queued %v", s.Discover.Queue)
	}
	if _, ok := s.Movies.Movie(1); !ok {
		t.Error("stale movies should still be merged into entities")
	}
	if s.Discover.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0", s.Discover.InFlight)
	}
	if s.Discover.Filter.Year != 2005 {
		t.Errorf("filter = %v, want 2005", s.Discover.Filter)
	}
}

func TestDiscoverFetchFailure(t *testing.T) {
	s := withQueue(4, 5)
	s = Reduce(s, FetchRandomDiscover{})
	s = Reduce(s, DiscoverFetchFailed{Generation: s.Discover.Generation, Kind: domain.KindNetwork, Message: "timeout"})

	if !slices.Equal(s.Discover.Queue, []int{4, 5}) {
		t.Errorf("failure touched queue: %v", s.Discover.Queue)
	}
	if s.Discover.LastError == nil || s.Discover.LastError.Kind != domain.KindNetwork {
		t.Errorf("LastError = %+v", s.Discover.LastError)
	}
	if s.Discover.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0", s.Discover.InFlight)
	}

	s = Reduce(s, FetchRandomDiscover{})
	s = Reduce(s, DiscoverFetched{Generation: s.Discover.Generation, Movies: movies(6)})
	if s.Discover.LastError != nil {
		t.Error("success should clear LastError")
	}
}

func TestResetClearsQueue(t *testing.T) {
	s := Reduce(withQueue(1, 2, 3), PopRandomDiscover{})
	gen := s.Discover.Generation

	s = Reduce(s, ResetRandomDiscover{})
	if len(s.Discover.Queue) != 0 || s.Discover.Previous != nil {
		t.Errorf("discover = %+v, want empty", s.Discover)
	}
	if s.Discover.Generation != gen+1 {
		t.Errorf("generation = %d, want %d", s.Discover.Generation, gen+1)
	}
}

func TestCheckPrecondition(t *testing.T) {
	s := Reduce(withQueue(1), CreateList{Name: "L"})
	s = Reduce(s, AddMovieToList{ListID: 1, MovieID: 9})

	tests := []struct {
		name    string
		state   AppState
		action  Action
		wantErr bool
	}{
		{"pop empty", NewAppState(), PopRandomDiscover{}, true},
		{"pop", s, PopRandomDiscover{}, false},
		{"push queued", s, PushRandomDiscover{MovieID: 1}, true},
		{"push new", s, PushRandomDiscover{MovieID: 2}, false},
		{"create blank", s, CreateList{Name: " "}, true},
		{"delete missing", s, DeleteList{ListID: 7}, true},
		{"add duplicate", s, AddMovieToList{ListID: 1, MovieID: 9}, true},
		{"remove absent", s, RemoveMovieFromList{ListID: 1, MovieID: 3}, true},
		{"remove present", s, RemoveMovieFromList{ListID: 1, MovieID: 9}, false},
		{"merge", s, MergeMovies{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPrecondition(tt.state, tt.action)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && domain.KindOf(err) != domain.KindPrecondition {
				t.Errorf("kind = %q, want precondition", domain.KindOf(err))
			}
		})
	}
}
