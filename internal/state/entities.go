package state

import (
	"maps"

	"github.com/mmcdole/moviedeck/internal/domain"
)

// reduceEntities merges by id with full replace: the newest payload for an
// id wins and untouched ids are kept.
func reduceEntities(e Entities, a Action) Entities {
	switch a := a.(type) {
	case MergeMovies:
		return e.withMovies(a.Movies)
	case DiscoverFetched:
		// Stale results still carry valid movie data
		return e.withMovies(a.Movies)
	case MergeGenres:
		return e.withGenres(a.Genres)
	}
	return e
}

func (e Entities) withMovies(movies []domain.Movie) Entities {
	if len(movies) == 0 {
		return e
	}
	next := maps.Clone(e.Movies)
	if next == nil {
		next = make(map[int]domain.Movie, len(movies))
	}
	for _, m := range movies {
		next[m.ID] = m
	}
	e.Movies = next
	return e
}

func (e Entities) withGenres(genres []domain.Genre) Entities {
	if len(genres) == 0 {
		return e
	}
	next := maps.Clone(e.Genres)
	if next == nil {
		next = make(map[int]domain.Genre, len(genres))
	}
	for _, g := range genres {
		next[g.ID] = g
	}
	e.Genres = next
	return e
}
