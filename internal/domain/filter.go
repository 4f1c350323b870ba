package domain

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// MinRandomYear is the earliest year a random discover filter picks.
const MinRandomYear = 1950

// DiscoverFilter narrows discover candidates. Either a year range
// (StartYear and EndYear both set) or a single Year is used.
type DiscoverFilter struct {
	Year      int    `json:"year,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
	Genre     *int   `json:"genre,omitempty"`
	Region    string `json:"region,omitempty"`
}

// RandomFilter returns a single-year filter for a random year between
// MinRandomYear and the current year.
func RandomFilter() DiscoverFilter {
	return RandomFilterFrom(rand.IntN)
}

// RandomFilterFrom is RandomFilter with an injectable source of randomness.
func RandomFilterFrom(intn func(n int) int) DiscoverFilter {
	span := time.Now().Year() - MinRandomYear + 1
	return DiscoverFilter{Year: MinRandomYear + intn(span)}
}

// HasRange reports whether the filter uses a year range
func (f DiscoverFilter) HasRange() bool {
	return f.StartYear > 0 && f.EndYear > 0
}

// Equal compares two filters by value
func (f DiscoverFilter) Equal(o DiscoverFilter) bool {
	if f.Year != o.Year || f.StartYear != o.StartYear || f.EndYear != o.EndYear || f.Region != o.Region {
		return false
	}
	switch {
	case f.Genre == nil && o.Genre == nil:
		return true
	case f.Genre == nil || o.Genre == nil:
		return false
	default:
		return *f.Genre == *o.Genre
	}
}

// Describe renders the filter for display, resolving the genre name via lookup
// (e.g., "1990-1999 · Drama · FR" or "2020 · Random").
func (f DiscoverFilter) Describe(genreName func(id int) (string, bool)) string {
	var b strings.Builder
	switch {
	case f.HasRange():
		b.WriteString(strconv.Itoa(f.StartYear))
		b.WriteString("-")
		b.WriteString(strconv.Itoa(f.EndYear))
	case f.Year > 0:
		b.WriteString(strconv.Itoa(f.Year))
		b.WriteString(" · Random")
	default:
		b.WriteString("Random")
	}
	if f.Genre != nil {
		name := strconv.Itoa(*f.Genre)
		if genreName != nil {
			if n, ok := genreName(*f.Genre); ok {
				name = n
			}
		}
		b.WriteString(" · ")
		b.WriteString(name)
	}
	if f.Region != "" {
		b.WriteString(" · ")
		b.WriteString(f.Region)
	}
	return b.String()
}

// String implements fmt.Stringer
func (f DiscoverFilter) String() string {
	return f.Describe(nil)
}
