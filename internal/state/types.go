package state

import (
	"slices"
	"sort"

	"github.com/mmcdole/moviedeck/internal/domain"
)

// AppState is the root aggregate. It is replaced on every transition and
// must be treated as read-only by consumers.
type AppState struct {
	Movies   Entities
	Lists    Lists
	Discover Discover
}

// Entities holds normalized reference data keyed by id.
type Entities struct {
	Movies map[int]domain.Movie
	Genres map[int]domain.Genre
}

// Lists holds the user's collections. Wishlist and SeenList are ordered
// sets and never share an id.
type Lists struct {
	Wishlist   []int
	SeenList   []int
	Custom     map[int]domain.CustomList
	NextListID int
}

// Discover is the swipeable stack. The last element of Queue is the top card.
type Discover struct {
	Queue      []int
	Previous   *int // most recently popped id, cleared by push and reset
	Filter     *domain.DiscoverFilter
	Generation uint64 // bumped whenever queued results become stale
	InFlight   int
	LastError  *FailureInfo
}

// FailureInfo records the outcome carried by a failure action.
type FailureInfo struct {
	Kind    domain.ErrorKind
	Message string
}

// NewAppState returns an empty state ready for dispatch.
func NewAppState() AppState {
	return AppState{
		Movies: Entities{
			Movies: make(map[int]domain.Movie),
			Genres: make(map[int]domain.Genre),
		},
		Lists: Lists{
			Custom:     make(map[int]domain.CustomList),
			NextListID: 1,
		},
	}
}

// Movie looks up a movie by id.
func (e Entities) Movie(id int) (domain.Movie, bool) {
	m, ok := e.Movies[id]
	return m, ok
}

// Genre looks up a genre by id.
func (e Entities) Genre(id int) (domain.Genre, bool) {
	g, ok := e.Genres[id]
	return g, ok
}

// GenreName adapts Genre for domain.DiscoverFilter.Describe.
func (e Entities) GenreName(id int) (string, bool) {
	g, ok := e.Genres[id]
	return g.Name, ok
}

// MoviesByIDs resolves ids in order, skipping unknown ones.
func (e Entities) MoviesByIDs(ids []int) []domain.Movie {
	out := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := e.Movies[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// SortedGenres returns genres ordered by name.
func (e Entities) SortedGenres() []domain.Genre {
	out := make([]domain.Genre, 0, len(e.Genres))
	for _, g := range e.Genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l Lists) InWishlist(id int) bool { return slices.Contains(l.Wishlist, id) }

func (l Lists) InSeenList(id int) bool { return slices.Contains(l.SeenList, id) }

// List looks up a custom list by id.
func (l Lists) List(id int) (domain.CustomList, bool) {
	cl, ok := l.Custom[id]
	return cl, ok
}

// SortedCustom returns custom lists in creation order.
func (l Lists) SortedCustom() []domain.CustomList {
	out := make([]domain.CustomList, 0, len(l.Custom))
	for _, cl := range l.Custom {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Saved converts the section into its persisted form.
func (l Lists) Saved() domain.SavedLists {
	return domain.SavedLists{
		Wishlist:   slices.Clone(l.Wishlist),
		SeenList:   slices.Clone(l.SeenList),
		Custom:     l.SortedCustom(),
		NextListID: l.NextListID,
	}
}

// movieIDs returns every id referenced by a list, each once.
func (l Lists) movieIDs() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(ids []int) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(l.Wishlist)
	add(l.SeenList)
	for _, cl := range l.SortedCustom() {
		add(cl.Movies)
		if cl.Cover != nil {
			add([]int{*cl.Cover})
		}
	}
	return out
}

// SavedLists returns the lists snapshot together with the movies they reference.
func (s AppState) SavedLists() domain.SavedLists {
	saved := s.Lists.Saved()
	saved.Movies = s.Movies.MoviesByIDs(s.Lists.movieIDs())
	return saved
}

// Top returns the current card.
func (d Discover) Top() (int, bool) {
	if len(d.Queue) == 0 {
		return 0, false
	}
	return d.Queue[len(d.Queue)-1], true
}

// Upcoming returns up to n ids below the top, nearest first.
func (d Discover) Upcoming(n int) []int {
	out := make([]int, 0, n)
	for i := len(d.Queue) - 2; i >= 0 && len(out) < n; i-- {
		out = append(out, d.Queue[i])
	}
	return out
}

// Contains reports whether id is queued.
func (d Discover) Contains(id int) bool { return slices.Contains(d.Queue, id) }

// CanUndo reports whether a popped card can be pushed back.
func (d Discover) CanUndo() bool { return d.Previous != nil }
