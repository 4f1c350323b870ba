package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/imagecache"
	"github.com/mmcdole/moviedeck/internal/search"
	"github.com/mmcdole/moviedeck/internal/tui/styles"
)

const (
	posterWidth    = 22
	posterHeight   = 9
	cardTextWidth  = 48
	listPreviewMax = 5
)

// View renders the current screen
func (m Model) View() string {
	var body string
	switch m.Mode {
	case ModeLists:
		body = m.renderLists()
	case ModeSearch:
		body = m.renderSearch()
	case ModeNewList:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.renderLists(),
			styles.ModalStyle.Render("New list: "+m.input.View()),
		)
	default:
		body = m.renderDeck()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	disc := m.State.Discover
	filter := "Random"
	if disc.Filter != nil {
		filter = disc.Filter.Describe(m.State.Movies.GenreName)
	}
	counts := fmt.Sprintf("%s %d  %s %d  deck %d",
		styles.WishlistMark, len(m.State.Lists.Wishlist),
		styles.SeenMark, len(m.State.Lists.SeenList),
		len(disc.Queue),
	)
	header := styles.TitleStyle.Render("moviedeck") + "  " + styles.FilterStyle.Render(filter) + "  " + styles.StatusStyle.Render(counts)
	if disc.InFlight > 0 {
		header += "  " + m.spinner.View()
	}
	return header
}

func (m Model) renderDeck() string {
	var sections []string
	if e := m.State.Discover.LastError; e != nil {
		sections = append(sections, styles.ErrorStyle.Render(fmt.Sprintf("Discover failed (%s): %s", e.Kind, e.Message)))
	}

	top, ok := m.topMovie()
	if !ok {
		if m.State.Discover.InFlight > 0 {
			sections = append(sections, m.spinner.View()+" Finding movies...")
		} else {
			sections = append(sections, styles.DimStyle.Render("No movies left. Press r to reshuffle or y for another year."))
		}
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	card := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPoster(top),
		"  ",
		m.renderCardText(top),
	)
	sections = append(sections, styles.CardStyle.Render(card))

	for i, id := range m.State.Discover.Upcoming(prefetchDepth) {
		movie, ok := m.State.Movies.Movie(id)
		if !ok {
			continue
		}
		line := strings.Repeat(" ", i) + movie.DisplayTitle()
		sections = append(sections, styles.BehindCardStyle.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderPoster(movie domain.Movie) string {
	box := styles.PosterStyle.Width(posterWidth).Height(posterHeight)

	l := m.posters.get(posterKey(movie))
	if l == nil {
		return box.Render("")
	}
	switch l.State() {
	case imagecache.StateLoading:
		return box.Render(m.spinner.View())
	case imagecache.StateLoaded:
		img := l.Image()
		return box.Render(fmt.Sprintf("%s\n%dx%d", img.Format, img.Width, img.Height))
	case imagecache.StateMissing:
		return box.Render(styles.DimStyle.Render("no poster") + "\n" + styles.DimStyle.Render("R to retry"))
	default:
		return box.Render("")
	}
}

func (m Model) renderCardText(movie domain.Movie) string {
	lines := []string{styles.TitleStyle.Render(movie.DisplayTitle())}
	if desc := movie.Description(); desc != "" {
		lines = append(lines, styles.SubtitleStyle.Render(desc))
	}
	if genres := m.genreNames(movie.GenreIDs); genres != "" {
		lines = append(lines, styles.AccentStyle.Render(genres))
	}
	if movie.Overview != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(cardTextWidth).Render(movie.Overview))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) genreNames(ids []int) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := m.State.Movies.GenreName(id); ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func (m Model) renderLists() string {
	lists := m.State.Lists

	sections := []string{
		m.renderListPanel(styles.WishlistMark+" Wishlist", lists.Wishlist),
		m.renderListPanel(styles.SeenMark+" Seen", lists.SeenList),
	}

	custom := lists.SortedCustom()
	if len(custom) == 0 {
		sections = append(sections, styles.DimStyle.Render("No custom lists. Press n to create one."))
	}
	for i, cl := range custom {
		title := fmt.Sprintf("%s (%d)", cl.Name, len(cl.Movies))
		if i == m.ListCursor {
			title = styles.SelectedItemStyle.Render(title)
		}
		if cl.Cover != nil {
			title += "  " + m.renderCover(*cl.Cover)
		}
		sections = append(sections, title)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderCover shows a custom list's cover title and its poster state
func (m Model) renderCover(id int) string {
	movie, ok := m.State.Movies.Movie(id)
	if !ok {
		return styles.DimStyle.Render(fmt.Sprintf("#%d", id))
	}
	out := movie.DisplayTitle()
	l := m.posters.get(posterKey(movie))
	if l == nil {
		return out
	}
	switch l.State() {
	case imagecache.StateLoading:
		out += " " + m.spinner.View()
	case imagecache.StateLoaded:
		img := l.Image()
		out += " " + styles.DimStyle.Render(fmt.Sprintf("[%s %dx%d]", img.Format, img.Width, img.Height))
	case imagecache.StateMissing:
		out += " " + styles.DimStyle.Render("[no cover]")
	}
	return out
}

func (m Model) renderListPanel(title string, ids []int) string {
	lines := []string{styles.TitleStyle.Render(fmt.Sprintf("%s (%d)", title, len(ids)))}
	// Most recent first
	for i := len(ids) - 1; i >= 0 && len(ids)-i <= listPreviewMax; i-- {
		movie, ok := m.State.Movies.Movie(ids[i])
		if !ok {
			movie.ID = ids[i]
		}
		lines = append(lines, "  "+movieLabel(movie, ok))
	}
	if len(ids) > listPreviewMax {
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("  and %d more", len(ids)-listPreviewMax)))
	}
	return styles.PanelStyle.Render(strings.Join(lines, "\n"))
}

// movieLabel names a listed movie, or its id while the details are unknown
func movieLabel(movie domain.Movie, ok bool) string {
	if !ok {
		return fmt.Sprintf("#%d", movie.ID)
	}
	return movie.DisplayTitle()
}

func (m Model) renderSearch() string {
	lines := []string{styles.ModalStyle.Render("/ " + m.input.View())}
	if strings.TrimSpace(m.input.Value()) != "" && len(m.Results) == 0 {
		lines = append(lines, styles.DimStyle.Render("No matches"))
	}
	for _, r := range m.Results {
		line := highlight(r) + "  " + styles.DimStyle.Render(r.Movie.Description())
		switch {
		case m.State.Lists.InWishlist(r.Movie.ID):
			line = styles.WishlistMark + " " + line
		case m.State.Lists.InSeenList(r.Movie.ID):
			line = styles.SeenMark + " " + line
		default:
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// highlight renders the display title with matched runes emphasized
func highlight(r search.Result) string {
	if len(r.MatchedIndexes) == 0 {
		return r.Movie.DisplayTitle()
	}
	matched := make(map[int]bool, len(r.MatchedIndexes))
	for _, i := range r.MatchedIndexes {
		matched[i] = true
	}
	var b strings.Builder
	for i, ch := range []rune(r.Movie.DisplayTitle()) {
		if matched[i] {
			b.WriteString(styles.MatchStyle.Render(string(ch)))
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(m.StatusMsg)
		}
		return styles.SuccessStyle.Render(m.StatusMsg)
	}
	return m.help.View(m.keys)
}
