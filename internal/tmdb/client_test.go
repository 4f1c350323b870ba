package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/tmdb"
)

func newClient(t *testing.T, server *httptest.Server, opts ...tmdb.Option) *tmdb.Client {
	t.Helper()
	base := []tmdb.Option{
		tmdb.WithImageBaseURL(server.URL + "/t/p"),
		tmdb.WithRetry(2, func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		tmdb.WithPageSource(func(int) int { return 0 }),
	}
	client, err := tmdb.New("key", server.URL+"/3", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := tmdb.New("  ", "")
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestDiscoverMoviesQuery(t *testing.T) {
	genre := 18
	tests := []struct {
		name   string
		filter domain.DiscoverFilter
		want   map[string]string
	}{
		{
			name:   "single year",
			filter: domain.DiscoverFilter{Year: 2020},
			want:   map[string]string{"primary_release_year": "2020", "page": "1", "region": "US"},
		},
		{
			name:   "range genre region",
			filter: domain.DiscoverFilter{StartYear: 1990, EndYear: 1999, Genre: &genre, Region: "FR"},
			want: map[string]string{
				"primary_release_date.gte": "1990-01-01",
				"primary_release_date.lte": "1999-12-31",
				"with_genres":              "18",
				"region":                   "FR",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/3/discover/movie" {
					t.Errorf("path = %q", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("api_key") != "key" || q.Get("language") != "en-US" {
					t.Errorf("missing auth/language params: %q", r.URL.RawQuery)
				}
				for k, v := range tt.want {
					if q.Get(k) != v {
						t.Errorf("%s = %q, want %q", k, q.Get(k), v)
					}
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"page":1,"total_pages":3,"results":[{"id":1,"title":"Heat","poster_path":"/heat.jpg","release_date":"1995-12-15","genre_ids":[18]}]}`))
			}))
			t.Cleanup(server.Close)

			client := newClient(t, server, tmdb.WithLanguage("en-US"), tmdb.WithRegion("us"))
			movies, err := client.DiscoverMovies(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("DiscoverMovies returned error: %v", err)
			}
			if len(movies) != 1 || movies[0].Title != "Heat" || movies[0].Year() != 1995 || movies[0].PosterPath != "/heat.jpg" {
				t.Fatalf("unexpected movies: %#v", movies)
			}
		})
	}
}

func TestDiscoverMoviesRetriesOutOfRangePage(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "8" {
			_, _ = w.Write([]byte(`{"page":8,"total_pages":2,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":2,"results":[{"id":5,"title":"Found"}]}`))
	}))
	t.Cleanup(server.Close)

	calls := 0
	pick := func(n int) int {
		calls++
		if calls == 1 {
			return 7
		}
		return n - 1
	}
	client := newClient(t, server, tmdb.WithPageSource(pick))

	movies, err := client.DiscoverMovies(context.Background(), domain.DiscoverFilter{Year: 1950})
	if err != nil {
		t.Fatalf("DiscoverMovies returned error: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != 5 {
		t.Fatalf("unexpected movies: %#v", movies)
	}
	if len(pages) != 2 || pages[1] != "2" {
		t.Errorf("pages requested = %v, want [8 2]", pages)
	}
}

func TestGenres(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/genre/movie/list" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"},{"id":35,"name":"Comedy"}]}`))
	}))
	t.Cleanup(server.Close)

	genres, err := newClient(t, server).Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres returned error: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Drama" {
		t.Fatalf("unexpected genres: %#v", genres)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"genres":[]}`))
	}))
	t.Cleanup(server.Close)

	if _, err := newClient(t, server).Genres(context.Background()); err != nil {
		t.Fatalf("Genres returned error after retries: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("attempts = %d, want 3", hits.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server).Genres(context.Background())
	var statusErr *tmdb.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 StatusError", err)
	}
	if domain.KindOf(err) != domain.KindNetwork {
		t.Errorf("kind = %q, want network", domain.KindOf(err))
	}
	if hits.Load() != 3 {
		t.Errorf("attempts = %d, want 3", hits.Load())
	}
}

func TestClientErrorsArePermanent(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server).DiscoverMovies(context.Background(), domain.DiscoverFilter{Year: 2001})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if hits.Load() != 1 {
		t.Errorf("attempts = %d, want 1", hits.Load())
	}
}

func TestMalformedJSONIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres":`))
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server).Genres(context.Background())
	if domain.KindOf(err) != domain.KindDecode {
		t.Fatalf("err = %v, want decode kind", err)
	}
}

func TestOversizedResponseIsRejected(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"genres":[],"pad":"` + strings.Repeat("x", 4<<20) + `"}`))
	}))
	t.Cleanup(server.Close)

	_, err := newClient(t, server).Genres(context.Background())
	if domain.KindOf(err) != domain.KindNetwork {
		t.Fatalf("err = %v, want network kind", err)
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("err = %v, want size error", err)
	}
	if hits.Load() != 1 {
		t.Errorf("attempts = %d, want 1", hits.Load())
	}
}

func TestFetchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/t/p/w342/poster.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.RawQuery != "" {
			t.Errorf("image request should not carry the api key: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server)
	data, err := client.FetchImage(context.Background(), "/poster.jpg", domain.ImageSizeMedium)
	if err != nil {
		t.Fatalf("FetchImage returned error: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("data = %q", data)
	}

	if _, err := client.FetchImage(context.Background(), "/nope.jpg", domain.ImageSizeMedium); !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("404 err = %v, want ErrNetwork", err)
	}
	if _, err := client.FetchImage(context.Background(), "", domain.ImageSizeMedium); !errors.Is(err, domain.ErrMissingResource) {
		t.Errorf("empty path err = %v, want ErrMissingResource", err)
	}
}
