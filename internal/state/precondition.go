package state

import (
	"fmt"
	"strings"

	"github.com/mmcdole/moviedeck/internal/domain"
)

// CheckPrecondition reports why a would leave s unchanged, or nil. The
// reducer never fails; this only explains no-op transitions for logging.
func CheckPrecondition(s AppState, a Action) error {
	switch a := a.(type) {
	case PopRandomDiscover:
		if len(s.Discover.Queue) == 0 {
			return fmt.Errorf("%w: pop on empty discover queue", domain.ErrPrecondition)
		}
	case PushRandomDiscover:
		if s.Discover.Contains(a.MovieID) {
			return fmt.Errorf("%w: movie %d already queued", domain.ErrPrecondition, a.MovieID)
		}
	case CreateList:
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: list name is empty", domain.ErrPrecondition)
		}
	case DeleteList:
		return listExists(s.Lists, a.ListID)
	case AddMovieToList:
		if err := listExists(s.Lists, a.ListID); err != nil {
			return err
		}
		if s.Lists.Custom[a.ListID].Contains(a.MovieID) {
			return fmt.Errorf("%w: movie %d already in list %d", domain.ErrPrecondition, a.MovieID, a.ListID)
		}
	case RemoveMovieFromList:
		if err := listExists(s.Lists, a.ListID); err != nil {
			return err
		}
		if !s.Lists.Custom[a.ListID].Contains(a.MovieID) {
			return fmt.Errorf("%w: movie %d not in list %d", domain.ErrPrecondition, a.MovieID, a.ListID)
		}
	}
	return nil
}

func listExists(l Lists, id int) error {
	if _, ok := l.Custom[id]; !ok {
		return fmt.Errorf("%w: list %d not found", domain.ErrPrecondition, id)
	}
	return nil
}
