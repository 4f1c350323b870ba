package search

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/state"
)

// Result is a matched movie with highlight positions
type Result struct {
	Movie          domain.Movie
	MatchedIndexes []int // rune positions in the display title
	Score          int   // higher is better
}

// Index implements sahilm/fuzzy.Source over movie titles
type Index struct {
	movies      []domain.Movie
	lowerTitles []string // pre-computed lowercase display titles
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of movies (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.movies) }

// NewIndex builds an index ordered by movie id so results are stable
func NewIndex(movies []domain.Movie) *Index {
	sorted := make([]domain.Movie, len(movies))
	copy(sorted, movies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := &Index{movies: sorted, lowerTitles: make([]string, len(sorted))}
	for i, m := range sorted {
		idx.lowerTitles[i] = strings.ToLower(m.DisplayTitle())
	}
	return idx
}

// Search ranks titles against query. Subsequence matches come first;
// accent-insensitive and then typo-tolerant matches are used only when
// nothing matches directly. limit <= 0 means no limit.
func (idx *Index) Search(query string, limit int) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	results := idx.subsequence(query)
	if len(results) == 0 {
		results = idx.normalized(query)
	}
	if len(results) == 0 {
		results = idx.typos(query)
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (idx *Index) subsequence(query string) []Result {
	matches := fuzzy.FindFrom(query, idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Movie:          idx.movies[m.Index],
			MatchedIndexes: runeIndexes(idx.lowerTitles[m.Index], m.MatchedIndexes),
			Score:          m.Score,
		}
	}
	// FindFrom sorts by score; break ties by popularity
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Movie.Popularity > results[j].Movie.Popularity
	})
	return results
}

// normalized matches ignoring diacritics ("amelie" finds "Amélie")
func (idx *Index) normalized(query string) []Result {
	var results []Result
	for i, title := range idx.lowerTitles {
		if fuzzysearch.MatchNormalizedFold(query, title) {
			results = append(results, Result{Movie: idx.movies[i], Score: -len(title)})
		}
	}
	sortByScore(results)
	return results
}

// typos matches any title word within the allowed edit distance
func (idx *Index) typos(query string) []Result {
	maxTypos := allowedTypos(len([]rune(query)))
	if maxTypos == 0 {
		return nil
	}

	var results []Result
	for i, title := range idx.lowerTitles {
		best := -1
		for _, word := range words(title) {
			d := fuzzysearch.LevenshteinDistance(query, word)
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= maxTypos {
			results = append(results, Result{Movie: idx.movies[i], Score: -100 * best})
		}
	}
	sortByScore(results)
	return results
}

// allowedTypos returns the number of typos allowed based on word length
// (1-3 chars = 0, 4-6 chars = 1, 7+ chars = 2)
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

func words(title string) []string {
	return strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// runeIndexes converts byte offsets reported by sahilm/fuzzy to rune positions
func runeIndexes(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return nil
	}
	pos := make(map[int]int, len(s))
	r := 0
	for b := range s {
		pos[b] = r
		r++
	}
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if p, ok := pos[b]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}

// Service searches the movies known to the state store
type Service struct {
	store  *state.Store
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(store *state.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Movies searches every movie in the entity repository
func (s *Service) Movies(query string, limit int) []Result {
	entities := s.store.State().Movies
	movies := make([]domain.Movie, 0, len(entities.Movies))
	for _, m := range entities.Movies {
		movies = append(movies, m)
	}
	results := NewIndex(movies).Search(query, limit)
	s.logger.Debug("local search", "query", query, "candidates", len(movies), "results", len(results))
	return results
}

// Lists searches the movies on the wishlist, the seen list and custom lists
func (s *Service) Lists(query string, limit int) []Result {
	st := s.store.State()
	ids := make(map[int]struct{})
	for _, id := range st.Lists.Wishlist {
		ids[id] = struct{}{}
	}
	for _, id := range st.Lists.SeenList {
		ids[id] = struct{}{}
	}
	for _, cl := range st.Lists.Custom {
		for _, id := range cl.Movies {
			ids[id] = struct{}{}
		}
	}
	movies := make([]domain.Movie, 0, len(ids))
	for id := range ids {
		if m, ok := st.Movies.Movie(id); ok {
			movies = append(movies, m)
		}
	}
	return NewIndex(movies).Search(query, limit)
}
