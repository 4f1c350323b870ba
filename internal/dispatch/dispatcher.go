package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/state"
)

const (
	// DefaultThreshold is the queue size below which the deck is refilled.
	DefaultThreshold    = 10
	defaultFetchTimeout = 20 * time.Second
)

// Direction is the outcome of a swipe.
type Direction int

const (
	// SwipeWishlist keeps the movie for later.
	SwipeWishlist Direction = iota
	// SwipeSeen marks the movie as already watched.
	SwipeSeen
)

func (d Direction) String() string {
	if d == SwipeSeen {
		return "seen"
	}
	return "wishlist"
}

// Options configures a Dispatcher.
type Options struct {
	Threshold    int
	FetchTimeout time.Duration
	Logger       *slog.Logger
	RandomFilter func() domain.DiscoverFilter
}

// Dispatcher runs actions that need I/O. Every async operation dispatches
// its start action synchronously and exactly one success or failure action
// when the effect settles.
type Dispatcher struct {
	store        *state.Store
	repo         domain.MovieRepository
	logger       *slog.Logger
	threshold    int
	fetchTimeout time.Duration
	randomFilter func() domain.DiscoverFilter

	wg       conc.WaitGroup
	refillMu sync.Mutex // makes the refill check and its start action atomic
}

// New creates a dispatcher over store and repo.
func New(store *state.Store, repo domain.MovieRepository, opts Options) *Dispatcher {
	d := &Dispatcher{
		store:        store,
		repo:         repo,
		logger:       opts.Logger,
		threshold:    opts.Threshold,
		fetchTimeout: opts.FetchTimeout,
		randomFilter: opts.RandomFilter,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.threshold <= 0 {
		d.threshold = DefaultThreshold
	}
	if d.fetchTimeout <= 0 {
		d.fetchTimeout = defaultFetchTimeout
	}
	if d.randomFilter == nil {
		d.randomFilter = domain.RandomFilter
	}
	return d
}

// Store returns the state store the dispatcher writes to.
func (d *Dispatcher) Store() *state.Store { return d.store }

// runAsync is the start/success/failure triple. after runs once the
// terminal action has been dispatched.
func runAsync[T any](
	d *Dispatcher,
	op string,
	start state.Action,
	effect func(ctx context.Context) (T, error),
	success func(T) state.Action,
	failure func(kind domain.ErrorKind, err error) state.Action,
	after func(ok bool),
) {
	logger := d.logger.With("op", op, "request_id", uuid.NewString())
	d.store.Dispatch(start)

	d.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.fetchTimeout)
		defer cancel()

		began := time.Now()
		result, err := effect(ctx)
		if err != nil {
			kind := classify(err)
			logger.Warn("async action failed", "kind", kind, "error", err, "duration", time.Since(began))
			d.store.Dispatch(failure(kind, err))
		} else {
			logger.Debug("async action succeeded", "duration", time.Since(began))
			d.store.Dispatch(success(result))
		}
		if after != nil {
			after(err == nil)
		}
	})
}

func classify(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.KindNetwork
	}
	return domain.KindOf(err)
}

// FetchRandomDiscover fetches candidates for filter, or for the active
// filter when nil, or for a random year when no filter is active. A filter
// different from the active one (or any filter while none is active)
// replaces it first, clearing the deck. Like RefillIfNeeded it
// only fetches while the deck is below the threshold and nothing is in
// flight, and reports whether a fetch started.
func (d *Dispatcher) FetchRandomDiscover(filter *domain.DiscoverFilter) bool {
	current := d.store.State().Discover
	if filter != nil && (current.Filter == nil || !filter.Equal(*current.Filter)) {
		d.store.Dispatch(state.SetDiscoverFilter{Filter: *filter})
	}
	return d.RefillIfNeeded()
}

// fetchDiscover fetches for the active filter, or a random one when none
// is active. Callers hold refillMu.
func (d *Dispatcher) fetchDiscover() {
	current := d.store.State().Discover
	f := d.randomFilter()
	if current.Filter != nil {
		f = *current.Filter
	}
	gen := current.Generation

	runAsync(d, "discover",
		state.FetchRandomDiscover{Filter: f},
		func(ctx context.Context) ([]domain.Movie, error) {
			return d.repo.DiscoverMovies(ctx, f)
		},
		func(movies []domain.Movie) state.Action {
			return state.DiscoverFetched{Generation: gen, Filter: f, Movies: movies}
		},
		func(kind domain.ErrorKind, err error) state.Action {
			return state.DiscoverFetchFailed{Generation: gen, Kind: kind, Message: err.Error()}
		},
		func(bool) {
			// A superseded fetch filled nothing, whether it succeeded or not,
			// and the refill for the new filter was skipped while it ran
			if d.store.State().Discover.Generation != gen {
				d.RefillIfNeeded()
			}
		},
	)
}

// FetchGenres loads the genre reference list.
func (d *Dispatcher) FetchGenres() {
	runAsync(d, "genres",
		state.FetchGenres{},
		d.repo.Genres,
		func(genres []domain.Genre) state.Action { return state.MergeGenres{Genres: genres} },
		func(kind domain.ErrorKind, err error) state.Action {
			return state.GenresFetchFailed{Kind: kind, Message: err.Error()}
		},
		nil,
	)
}

// RefillIfNeeded starts a discover fetch when the queue is below the
// threshold and nothing is in flight. It reports whether a fetch started.
// Store listeners must not call it synchronously.
func (d *Dispatcher) RefillIfNeeded() bool {
	d.refillMu.Lock()
	defer d.refillMu.Unlock()

	disc := d.store.State().Discover
	if len(disc.Queue) >= d.threshold || disc.InFlight > 0 {
		d.logger.Debug("discover fetch not needed", "queued", len(disc.Queue), "in_flight", disc.InFlight)
		return false
	}
	d.logger.Debug("refilling discover queue", "queued", len(disc.Queue), "threshold", d.threshold)
	d.fetchDiscover()
	return true
}

// Swipe applies the side effect for dir to the top card, then pops it.
// It reports false when the deck is empty.
func (d *Dispatcher) Swipe(dir Direction) bool {
	top, ok := d.store.State().Discover.Top()
	if !ok {
		d.logger.Warn("swipe on empty discover queue", "direction", dir.String())
		return false
	}
	switch dir {
	case SwipeSeen:
		d.store.Dispatch(state.AddToSeenList{MovieID: top})
	default:
		d.store.Dispatch(state.AddToWishlist{MovieID: top})
	}
	d.store.Dispatch(state.PopRandomDiscover{})
	d.RefillIfNeeded()
	return true
}

// Skip pops the top card without a side effect.
func (d *Dispatcher) Skip() bool {
	if _, ok := d.store.State().Discover.Top(); !ok {
		d.logger.Warn("skip on empty discover queue")
		return false
	}
	d.store.Dispatch(state.PopRandomDiscover{})
	d.RefillIfNeeded()
	return true
}

// Undo pushes the most recently popped card back on top. List side
// effects of the swipe are kept.
func (d *Dispatcher) Undo() bool {
	prev := d.store.State().Discover.Previous
	if prev == nil {
		d.logger.Warn("nothing to undo", "error", domain.ErrPrecondition)
		return false
	}
	d.store.Dispatch(state.PushRandomDiscover{MovieID: *prev})
	d.RefillIfNeeded()
	return true
}

// Reset clears the deck and refills it.
func (d *Dispatcher) Reset() {
	d.store.Dispatch(state.ResetRandomDiscover{})
	d.RefillIfNeeded()
}

// SetFilter replaces the active filter, clearing the deck, and refills it.
func (d *Dispatcher) SetFilter(filter domain.DiscoverFilter) {
	d.store.Dispatch(state.SetDiscoverFilter{Filter: filter})
	d.RefillIfNeeded()
}

// Wait blocks until every async effect started so far has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
