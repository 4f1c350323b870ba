package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#F5C518")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Amber).
			Padding(0, 1)

	MatchStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Underline(true)
)

// List membership markers
const (
	WishlistChar = "♥"
	SeenChar     = "✓"
)

var (
	WishlistMark = lipgloss.NewStyle().Foreground(Amber).Render(WishlistChar)
	SeenMark     = lipgloss.NewStyle().Foreground(Green).Render(SeenChar)
)

// Card styles
var (
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)

	// BehindCardStyle renders the cards stacked below the top card
	BehindCardStyle = lipgloss.NewStyle().
			Foreground(DimGray).
			PaddingLeft(2)

	PosterStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(SlateLight).
			Foreground(LightGray).
			Align(lipgloss.Center, lipgloss.Center)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(SlateDark).
				Background(Amber).
				Bold(true)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(0, 1)
)

// Footer styles
var (
	StatusStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	FilterStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Amber).
			Padding(0, 1)
)
