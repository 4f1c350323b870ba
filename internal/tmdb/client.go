package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmcdole/moviedeck/internal/domain"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	// MaxRandomPage bounds the page picked for a random discover request.
	MaxRandomPage = 10

	defaultMaxRetries = 3
	maxJSONBytes      = 4 << 20
	maxImageBytes     = 20 << 20
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d", e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return domain.ErrNetwork }

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the TMDB v3 API and image CDN.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	region       string
	httpClient   *http.Client
	logger       *slog.Logger
	maxRetries   uint64
	newBackOff   func() backoff.BackOff
	intn         func(n int) int
}

var (
	_ domain.MovieRepository = (*Client)(nil)
	_ domain.ImageFetcher    = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithImageBaseURL overrides the image CDN root.
func WithImageBaseURL(raw string) Option {
	return func(c *Client) {
		if raw = strings.TrimSpace(raw); raw != "" {
			c.imageBaseURL = strings.TrimRight(raw, "/")
		}
	}
}

// WithLanguage sets the language parameter sent with API requests.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = strings.TrimSpace(language) }
}

// WithRegion sets the default region used when a filter has none.
func WithRegion(region string) Option {
	return func(c *Client) { c.region = strings.ToUpper(strings.TrimSpace(region)) }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry overrides the retry count and backoff schedule.
func WithRetry(maxRetries uint64, newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithPageSource replaces the random page picker.
func WithPageSource(intn func(n int) int) Option {
	return func(c *Client) {
		if intn != nil {
			c.intn = intn
		}
	}
}

// New creates a TMDB client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tmdb api key required", domain.ErrNotConfigured)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: DefaultImageBaseURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       slog.Default(),
		maxRetries:   defaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		intn: rand.IntN,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type discoverResponse struct {
	Page         int            `json:"page"`
	Results      []domain.Movie `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type genresResponse struct {
	Genres []domain.Genre `json:"genres"`
}

// DiscoverMovies returns one random page of movies matching filter.
func (c *Client) DiscoverMovies(ctx context.Context, filter domain.DiscoverFilter) ([]domain.Movie, error) {
	page := 1 + c.intn(MaxRandomPage)
	resp, err := c.discoverPage(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	// Narrow filters can have fewer pages than the one we picked
	if len(resp.Results) == 0 && page > 1 && resp.TotalPages > 0 {
		page = 1 + c.intn(min(resp.TotalPages, MaxRandomPage))
		c.logger.Debug("discover page out of range, retrying", "total_pages", resp.TotalPages, "page", page)
		if resp, err = c.discoverPage(ctx, filter, page); err != nil {
			return nil, err
		}
	}
	return resp.Results, nil
}

func (c *Client) discoverPage(ctx context.Context, filter domain.DiscoverFilter, page int) (*discoverResponse, error) {
	params := c.params()
	params.Set("page", strconv.Itoa(page))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	switch {
	case filter.HasRange():
		params.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", filter.StartYear))
		params.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", filter.EndYear))
	case filter.Year > 0:
		params.Set("primary_release_year", strconv.Itoa(filter.Year))
	}
	if filter.Genre != nil {
		params.Set("with_genres", strconv.Itoa(*filter.Genre))
	}
	region := c.region
	if filter.Region != "" {
		region = filter.Region
	}
	if region != "" {
		params.Set("region", region)
	}

	var resp discoverResponse
	if err := c.getJSON(ctx, "/discover/movie", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	var resp genresResponse
	if err := c.getJSON(ctx, "/genre/movie/list", c.params(), &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// FetchImage downloads an image variant from the CDN.
func (c *Client) FetchImage(ctx context.Context, path string, size domain.ImageSize) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty image path", domain.ErrMissingResource)
	}
	if !size.Valid() {
		return nil, fmt.Errorf("unknown image size %q", size)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.do(ctx, c.imageBaseURL+"/"+string(size)+path, "/"+string(size)+path, maxImageBytes)
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	body, err := c.do(ctx, endpoint.String(), path, maxJSONBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: tmdb %s response: %v", domain.ErrDecode, path, err)
	}
	return nil
}

// do performs a GET with retries. path is the loggable form of rawURL
// (the query carries the api key).
func (c *Client) do(ctx context.Context, rawURL, path string, limit int64) ([]byte, error) {
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(fmt.Errorf("%w: %s: %w", domain.ErrNetwork, path, ctxErr))
			}
			return fmt.Errorf("%w: %s (latency=%v): %v", domain.ErrNetwork, path, latency, redact(err, c.apiKey))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			statusErr := &StatusError{StatusCode: resp.StatusCode, Path: path}
			if statusErr.Retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", domain.ErrNetwork, path, err)
		}
		if int64(len(data)) > limit {
			return backoff.Permanent(fmt.Errorf("%w: %s: response too large (limit %d bytes)", domain.ErrNetwork, path, limit))
		}
		body = data
		c.logger.Debug("tmdb request", "path", path, "attempt", attempt, "bytes", len(data), "latency", latency)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("tmdb request failed, retrying", "path", path, "attempt", attempt, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var statusErr *StatusError
		if !errors.Is(err, domain.ErrNetwork) && !errors.As(err, &statusErr) {
			// Context expiry while waiting between attempts
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrNetwork, path, err)
		}
		return nil, err
	}
	return body, nil
}

// redact strips the api key from transport errors, which embed the URL.
func redact(err error, apiKey string) string {
	return strings.ReplaceAll(err.Error(), apiKey, "REDACTED")
}
