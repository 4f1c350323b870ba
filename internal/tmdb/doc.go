// Package tmdb is the network client behind the discover deck.
//
// It implements domain.MovieRepository (random discover pages and the genre
// list) and domain.ImageFetcher (poster variants from the image CDN).
// Rate limiting, server errors and transport failures are retried with
// exponential backoff; other client errors fail immediately. All failures
// wrap domain.ErrNetwork or domain.ErrDecode so callers can classify them.
package tmdb
