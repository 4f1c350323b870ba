package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/moviedeck/internal/dispatch"
	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/imagecache"
	"github.com/mmcdole/moviedeck/internal/search"
	"github.com/mmcdole/moviedeck/internal/state"
	"github.com/mmcdole/moviedeck/internal/tui/styles"
)

const (
	// prefetchDepth is how many cards below the top get their poster loaded early
	prefetchDepth = 3
	searchLimit   = 10
	statusTimeout = 3 * time.Second
)

// Mode is the active screen
type Mode int

const (
	ModeDeck Mode = iota
	ModeLists
	ModeSearch
	ModeNewList
)

// Deps are the services the UI drives
type Deps struct {
	Store      *state.Store
	Dispatcher *dispatch.Dispatcher
	Images     *imagecache.Cache // nil disables posters
	Search     *search.Service
	Logger     *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	searchSvc  *search.Service
	logger     *slog.Logger

	states      *StateObserver
	unsubscribe func()
	posters     *posterSet

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model

	// Snapshot of the store, refreshed on every StateMsg
	State state.AppState
	Mode  Mode

	ListCursor int // index into the sorted custom lists
	Results    []search.Result

	Width  int
	Height int

	StatusMsg   string
	StatusIsErr bool
	ShowHelp    bool
}

// NewModel creates the application model and subscribes it to the store.
// Call Close when the program exits.
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	states := NewStateObserver()
	unsubscribe := deps.Store.Subscribe(states.OnState)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	input := textinput.New()
	input.CharLimit = 64

	m := Model{
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		searchSvc:   deps.Search,
		logger:      logger,
		states:      states,
		unsubscribe: unsubscribe,
		posters:     newPosterSet(deps.Images),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		input:       input,
		State:       deps.Store.State(),
	}
	m.posters.sync(m.posterMovies())
	return m
}

// Close unsubscribes from the store and releases poster pins
func (m Model) Close() {
	m.unsubscribe()
	m.posters.close()
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.states.Listen(),
		m.posters.observer.Listen(),
		m.spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case StateMsg:
		m.State = msg.State
		m.clampCursor()
		m.posters.sync(m.posterMovies())
		if m.Mode == ModeSearch {
			m.runSearch()
		}
		return m, m.states.Listen()

	case PosterMsg:
		// Re-render only; the view reads loader state directly
		return m, m.posters.observer.Listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.StatusMsg = msg.Text
		m.StatusIsErr = msg.IsErr
		return m, ClearStatusCmd(statusTimeout)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Act on the newest state even if its StateMsg is still queued
	m.State = m.store.State()
	m.clampCursor()

	switch m.Mode {
	case ModeSearch, ModeNewList:
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
		m.help.ShowAll = m.ShowHelp
		return m, nil
	case key.Matches(msg, m.keys.ToggleLists):
		if m.Mode == ModeLists {
			m.Mode = ModeDeck
		} else {
			m.Mode = ModeLists
		}
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.Mode = ModeSearch
		m.input.Placeholder = "Search movies"
		m.input.SetValue("")
		m.Results = nil
		return m, m.input.Focus()
	}

	if m.Mode == ModeLists {
		return m.handleListsKey(msg)
	}
	return m.handleDeckKey(msg)
}

func (m Model) handleDeckKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Wishlist):
		if !m.dispatcher.Swipe(dispatch.SwipeWishlist) {
			return m, statusCmd("Deck is empty", true)
		}
	case key.Matches(msg, m.keys.Seen):
		if !m.dispatcher.Swipe(dispatch.SwipeSeen) {
			return m, statusCmd("Deck is empty", true)
		}
	case key.Matches(msg, m.keys.Skip):
		if !m.dispatcher.Skip() {
			return m, statusCmd("Deck is empty", true)
		}
	case key.Matches(msg, m.keys.Undo):
		if !m.dispatcher.Undo() {
			return m, statusCmd("Nothing to undo", true)
		}
	case key.Matches(msg, m.keys.Reset):
		m.dispatcher.Reset()
		return m, statusCmd("Reshuffled", false)
	case key.Matches(msg, m.keys.Genre):
		filter := m.activeFilter()
		filter.Genre = nextGenre(m.store.State().Movies.SortedGenres(), filter.Genre)
		m.dispatcher.SetFilter(filter)
	case key.Matches(msg, m.keys.Year):
		current := m.activeFilter()
		filter := domain.RandomFilter()
		filter.Genre = current.Genre
		filter.Region = current.Region
		m.dispatcher.SetFilter(filter)
	case key.Matches(msg, m.keys.AddToList):
		return m, m.addTopToSelectedList()
	case key.Matches(msg, m.keys.Retry):
		if top, ok := m.topMovie(); ok {
			m.posters.retry(posterKey(top))
		}
	}
	return m, nil
}

func (m Model) handleListsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	custom := m.State.Lists.SortedCustom()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.ListCursor > 0 {
			m.ListCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.ListCursor < len(custom)-1 {
			m.ListCursor++
		}
	case key.Matches(msg, m.keys.NewList):
		m.Mode = ModeNewList
		m.input.Placeholder = "List name"
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.DeleteList):
		if m.ListCursor < len(custom) {
			cl := custom[m.ListCursor]
			m.store.Dispatch(state.DeleteList{ListID: cl.ID})
			return m, statusCmd("Deleted "+cl.Name, false)
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if m.Mode == ModeNewList {
			name := strings.TrimSpace(m.input.Value())
			m.closeInput()
			return m, m.dispatchChecked(state.CreateList{Name: name}, "Created "+name)
		}
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.Mode == ModeSearch {
		m.runSearch()
	}
	return m, cmd
}

func (m *Model) closeInput() {
	if m.Mode == ModeNewList {
		m.Mode = ModeLists
	} else {
		m.Mode = ModeDeck
	}
	m.input.Blur()
	m.Results = nil
}

func (m *Model) runSearch() {
	if m.searchSvc == nil {
		return
	}
	m.Results = m.searchSvc.Movies(m.input.Value(), searchLimit)
}

func (m Model) addTopToSelectedList() tea.Cmd {
	top, ok := m.topMovie()
	if !ok {
		return statusCmd("Deck is empty", true)
	}
	custom := m.State.Lists.SortedCustom()
	if m.ListCursor >= len(custom) {
		return statusCmd("No list selected; create one in the lists view", true)
	}
	cl := custom[m.ListCursor]
	return m.dispatchChecked(
		state.AddMovieToList{ListID: cl.ID, MovieID: top.ID},
		"Added "+top.DisplayTitle()+" to "+cl.Name,
	)
}

// dispatchChecked reports a precondition failure in the footer instead of
// letting the store drop the action silently
func (m Model) dispatchChecked(a state.Action, success string) tea.Cmd {
	if err := state.CheckPrecondition(m.store.State(), a); err != nil {
		m.logger.Debug("action rejected", "error", err)
		return statusCmd(err.Error(), true)
	}
	m.store.Dispatch(a)
	return statusCmd(success, false)
}

func (m Model) activeFilter() domain.DiscoverFilter {
	if f := m.store.State().Discover.Filter; f != nil {
		return *f
	}
	return domain.RandomFilter()
}

func (m Model) topMovie() (domain.Movie, bool) {
	id, ok := m.State.Discover.Top()
	if !ok {
		return domain.Movie{}, false
	}
	return m.State.Movies.Movie(id)
}

// cardMovies returns the top card followed by the prefetched ones
func (m Model) cardMovies() []domain.Movie {
	d := m.State.Discover
	ids := make([]int, 0, prefetchDepth+1)
	if top, ok := d.Top(); ok {
		ids = append(ids, top)
	}
	ids = append(ids, d.Upcoming(prefetchDepth)...)
	return m.State.Movies.MoviesByIDs(ids)
}

// posterMovies returns the movies whose posters stay loaded: the cards and
// the custom list covers
func (m Model) posterMovies() []domain.Movie {
	movies := m.cardMovies()
	for _, cl := range m.State.Lists.SortedCustom() {
		if cl.Cover == nil {
			continue
		}
		if cover, ok := m.State.Movies.Movie(*cl.Cover); ok {
			movies = append(movies, cover)
		}
	}
	return movies
}

func (m *Model) clampCursor() {
	n := len(m.State.Lists.Custom)
	if m.ListCursor >= n {
		m.ListCursor = n - 1
	}
	if m.ListCursor < 0 {
		m.ListCursor = 0
	}
}

// nextGenre cycles through genres, returning nil (any genre) after the last
func nextGenre(genres []domain.Genre, current *int) *int {
	if len(genres) == 0 {
		return nil
	}
	if current != nil {
		for i, g := range genres {
			if g.ID != *current {
				continue
			}
			if i+1 == len(genres) {
				return nil
			}
			id := genres[i+1].ID
			return &id
		}
	}
	id := genres[0].ID
	return &id
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: text, IsErr: isErr}
	}
}
