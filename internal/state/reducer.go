package state

// Reduce computes the next state. It is pure and total: actions a section
// does not handle leave that section untouched, so an unknown action
// returns a state equal to s.
//
// Each section is folded independently. The discover fold also reads the
// previous lists section to keep swiped movies out of the queue.
func Reduce(s AppState, a Action) AppState {
	if a == nil {
		return s
	}
	next := s
	next.Movies = reduceEntities(s.Movies, a)
	next.Lists = reduceLists(s.Lists, a)
	next.Discover = reduceDiscover(s.Discover, s.Lists, a)
	return next
}
