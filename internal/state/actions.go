package state

import "github.com/mmcdole/moviedeck/internal/domain"

// Action is a closed set of state changes. Only types in this package
// implement it.
type Action interface {
	action()
}

// Entity actions

type MergeMovies struct{ Movies []domain.Movie }

type MergeGenres struct{ Genres []domain.Genre }

// List actions

type AddToWishlist struct{ MovieID int }

type AddToSeenList struct{ MovieID int }

type RemoveFromWishlist struct{ MovieID int }

type RemoveFromSeenList struct{ MovieID int }

type CreateList struct {
	Name  string
	Cover *int
}

type DeleteList struct{ ListID int }

type AddMovieToList struct {
	ListID  int
	MovieID int
}

type RemoveMovieFromList struct {
	ListID  int
	MovieID int
}

// RestoreLists replaces the lists section with a persisted snapshot.
type RestoreLists struct{ Lists domain.SavedLists }

// Discover actions

// FetchRandomDiscover starts a candidate fetch.
type FetchRandomDiscover struct{ Filter domain.DiscoverFilter }

// DiscoverFetched completes a fetch started at Generation.
type DiscoverFetched struct {
	Generation uint64
	Filter     domain.DiscoverFilter
	Movies     []domain.Movie
}

// DiscoverFetchFailed fails a fetch started at Generation.
type DiscoverFetchFailed struct {
	Generation uint64
	Kind       domain.ErrorKind
	Message    string
}

type PushRandomDiscover struct{ MovieID int }

type PopRandomDiscover struct{}

type ResetRandomDiscover struct{}

type SetDiscoverFilter struct{ Filter domain.DiscoverFilter }

// Genre fetch; success is MergeGenres

type FetchGenres struct{}

type GenresFetchFailed struct {
	Kind    domain.ErrorKind
	Message string
}

func (MergeMovies) action()         {}
func (MergeGenres) action()         {}
func (AddToWishlist) action()       {}
func (AddToSeenList) action()       {}
func (RemoveFromWishlist) action()  {}
func (RemoveFromSeenList) action()  {}
func (CreateList) action()          {}
func (DeleteList) action()          {}
func (AddMovieToList) action()      {}
func (RemoveMovieFromList) action() {}
func (RestoreLists) action()        {}
func (FetchRandomDiscover) action() {}
func (DiscoverFetched) action()     {}
func (DiscoverFetchFailed) action() {}
func (PushRandomDiscover) action()  {}
func (PopRandomDiscover) action()   {}
func (ResetRandomDiscover) action() {}
func (SetDiscoverFilter) action()   {}
func (FetchGenres) action()         {}
func (GenresFetchFailed) action()   {}
