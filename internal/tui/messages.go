package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/imagecache"
	"github.com/mmcdole/moviedeck/internal/state"
)

// StateMsg carries a published store snapshot
type StateMsg struct {
	State state.AppState
}

// PosterMsg signals a poster loader state change
type PosterMsg struct {
	Key   domain.ImageKey
	State imagecache.LoadState
}

// StatusMsg sets a transient footer message
type StatusMsg struct {
	Text  string
	IsErr bool
}

// ClearStatusMsg clears the footer message
type ClearStatusMsg struct{}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
