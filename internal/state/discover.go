package state

import (
	"slices"

	"github.com/mmcdole/moviedeck/internal/domain"
)

// reduceDiscover folds the discover stack. lists is the previous lists
// section and is only read.
func reduceDiscover(d Discover, lists Lists, a Action) Discover {
	switch a := a.(type) {
	case FetchRandomDiscover:
		d.InFlight++
		if d.Filter == nil {
			f := a.Filter
			d.Filter = &f
		}
		return d

	case DiscoverFetched:
		d.InFlight = max(d.InFlight-1, 0)
		if a.Generation != d.Generation {
			return d
		}
		d.LastError = nil
		d.Queue = insertAtBottom(d.Queue, candidateIDs(d, lists, a.Movies))
		return d

	case DiscoverFetchFailed:
		d.InFlight = max(d.InFlight-1, 0)
		if a.Generation == d.Generation {
			d.LastError = &FailureInfo{Kind: a.Kind, Message: a.Message}
		}
		return d

	case PushRandomDiscover:
		if d.Contains(a.MovieID) {
			return d
		}
		queue := make([]int, len(d.Queue), len(d.Queue)+1)
		copy(queue, d.Queue)
		d.Queue = append(queue, a.MovieID)
		d.Previous = nil
		return d

	case PopRandomDiscover:
		top, ok := d.Top()
		if !ok {
			return d
		}
		d.Queue = slices.Clone(d.Queue[:len(d.Queue)-1])
		d.Previous = &top
		return d

	case ResetRandomDiscover:
		return d.cleared()

	case SetDiscoverFilter:
		f := a.Filter
		d = d.cleared()
		d.Filter = &f
		return d
	}
	return d
}

// cleared empties the stack and invalidates in-flight results.
func (d Discover) cleared() Discover {
	d.Queue = nil
	d.Previous = nil
	d.LastError = nil
	d.Generation++
	return d
}

// candidateIDs picks fetched ids that are not queued, not swiped and not
// repeated within the batch.
func candidateIDs(d Discover, lists Lists, movies []domain.Movie) []int {
	seen := make(map[int]struct{}, len(d.Queue)+len(movies))
	for _, id := range d.Queue {
		seen[id] = struct{}{}
	}
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		if lists.InWishlist(m.ID) || lists.InSeenList(m.ID) {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m.ID)
	}
	return out
}

// insertAtBottom places ids under the current cards, each new id going
// to index 0 in turn, so the top card never changes under the user.
func insertAtBottom(queue, ids []int) []int {
	if len(ids) == 0 {
		return queue
	}
	out := make([]int, 0, len(queue)+len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, ids[i])
	}
	return append(out, queue...)
}
