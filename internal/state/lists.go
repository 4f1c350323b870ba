package state

import (
	"maps"
	"slices"
	"strings"

	"github.com/mmcdole/moviedeck/internal/domain"
)

func reduceLists(l Lists, a Action) Lists {
	switch a := a.(type) {
	case AddToWishlist:
		if l.InWishlist(a.MovieID) && !l.InSeenList(a.MovieID) {
			return l
		}
		l.Wishlist = appendUnique(l.Wishlist, a.MovieID)
		l.SeenList = without(l.SeenList, a.MovieID)
		return l

	case AddToSeenList:
		if l.InSeenList(a.MovieID) && !l.InWishlist(a.MovieID) {
			return l
		}
		l.SeenList = appendUnique(l.SeenList, a.MovieID)
		l.Wishlist = without(l.Wishlist, a.MovieID)
		return l

	case RemoveFromWishlist:
		l.Wishlist = without(l.Wishlist, a.MovieID)
		return l

	case RemoveFromSeenList:
		l.SeenList = without(l.SeenList, a.MovieID)
		return l

	case CreateList:
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return l
		}
		id := max(l.NextListID, 1)
		l.Custom = cloneCustom(l.Custom)
		l.Custom[id] = domain.CustomList{ID: id, Name: name, Cover: copyID(a.Cover), Movies: []int{}}
		l.NextListID = id + 1
		return l

	case DeleteList:
		if _, ok := l.Custom[a.ListID]; !ok {
			return l
		}
		l.Custom = cloneCustom(l.Custom)
		delete(l.Custom, a.ListID)
		return l

	case AddMovieToList:
		cl, ok := l.Custom[a.ListID]
		if !ok || cl.Contains(a.MovieID) {
			return l
		}
		cl.Movies = appendUnique(cl.Movies, a.MovieID)
		if cl.Cover == nil {
			cl.Cover = copyID(&a.MovieID)
		}
		l.Custom = cloneCustom(l.Custom)
		l.Custom[a.ListID] = cl
		return l

	case RemoveMovieFromList:
		cl, ok := l.Custom[a.ListID]
		if !ok || !cl.Contains(a.MovieID) {
			return l
		}
		cl.Movies = without(cl.Movies, a.MovieID)
		if cl.Cover != nil && *cl.Cover == a.MovieID {
			cl.Cover = nil
			if len(cl.Movies) > 0 {
				cl.Cover = copyID(&cl.Movies[0])
			}
		}
		l.Custom = cloneCustom(l.Custom)
		l.Custom[a.ListID] = cl
		return l

	case RestoreLists:
		return listsFromSaved(a.Lists)
	}
	return l
}

// listsFromSaved rebuilds the section from a snapshot, dropping duplicates.
// An id present in both sets stays on the wishlist.
func listsFromSaved(saved domain.SavedLists) Lists {
	l := Lists{Custom: make(map[int]domain.CustomList, len(saved.Custom))}
	for _, id := range saved.Wishlist {
		l.Wishlist = appendUnique(l.Wishlist, id)
	}
	for _, id := range saved.SeenList {
		if !l.InWishlist(id) {
			l.SeenList = appendUnique(l.SeenList, id)
		}
	}

	next := max(saved.NextListID, 1)
	for _, cl := range saved.Custom {
		movies := []int{}
		for _, id := range cl.Movies {
			movies = appendUnique(movies, id)
		}
		cl.Movies = movies
		cl.Cover = copyID(cl.Cover)
		l.Custom[cl.ID] = cl
		next = max(next, cl.ID+1)
	}
	l.NextListID = next
	return l
}

// appendUnique returns a new slice with id appended unless already present.
func appendUnique(ids []int, id int) []int {
	if slices.Contains(ids, id) {
		return ids
	}
	out := make([]int, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

// without returns a new slice with id removed, or ids itself if absent.
func without(ids []int, id int) []int {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	out := make([]int, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}

func cloneCustom(m map[int]domain.CustomList) map[int]domain.CustomList {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[int]domain.CustomList)
	}
	return out
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
