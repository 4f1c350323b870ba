package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Movie is a single title as returned by the discover API.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`   // empty when the movie has no poster
	BackdropPath     string  `json:"backdrop_path,omitempty"` // empty when the movie has no backdrop
	ReleaseDate      string  `json:"release_date,omitempty"`  // YYYY-MM-DD
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Popularity       float64 `json:"popularity,omitempty"`
	VoteAverage      float64 `json:"vote_average,omitempty"`
	VoteCount        int     `json:"vote_count,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
}

// Year returns the release year parsed from ReleaseDate (0 if unknown)
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// DisplayTitle returns the title shown to the user, falling back to the original title
func (m Movie) DisplayTitle() string {
	if strings.TrimSpace(m.Title) != "" {
		return m.Title
	}
	return m.OriginalTitle
}

// Description returns secondary info for display (e.g., "2019 · 7.4")
func (m Movie) Description() string {
	parts := make([]string, 0, 2)
	if y := m.Year(); y > 0 {
		parts = append(parts, strconv.Itoa(y))
	}
	if m.VoteCount > 0 {
		parts = append(parts, fmt.Sprintf("%.1f", m.VoteAverage))
	}
	return strings.Join(parts, " · ")
}

// HasGenre reports whether the movie is tagged with the genre
func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// Genre is static reference data.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CustomList is a user-created, ordered collection of movie ids.
type CustomList struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Cover  *int   `json:"cover,omitempty"` // movie id used as list artwork
	Movies []int  `json:"movies"`          // insertion order, no duplicates
}

// Contains reports whether the list holds the movie
func (l CustomList) Contains(movieID int) bool {
	for _, id := range l.Movies {
		if id == movieID {
			return true
		}
	}
	return false
}

// SavedLists is the persisted form of the user's lists.
type SavedLists struct {
	Wishlist   []int        `json:"wishlist"`
	SeenList   []int        `json:"seenlist"`
	Custom     []CustomList `json:"custom"`
	NextListID int          `json:"next_list_id"`
	// Movies referenced by any list, so titles resolve before discover runs
	Movies []Movie `json:"movies,omitempty"`
}
