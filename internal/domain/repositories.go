package domain

import "context"

// MovieRepository: network operations for movie metadata (implemented by the TMDB client)
type MovieRepository interface {
	// DiscoverMovies returns one page of candidates matching the filter
	DiscoverMovies(ctx context.Context, filter DiscoverFilter) ([]Movie, error)

	// Genres returns the static genre reference list
	Genres(ctx context.Context) ([]Genre, error)
}

// ImageFetcher: network retrieval of raw image bytes
type ImageFetcher interface {
	FetchImage(ctx context.Context, path string, size ImageSize) ([]byte, error)
}
