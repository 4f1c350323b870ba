package domain

// DiskStore is the persistent tier of the image cache.
// No transactional guarantees are assumed by callers.
type DiskStore interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// ListStore persists the user's lists between runs.
type ListStore interface {
	LoadLists() (SavedLists, bool)
	SaveLists(lists SavedLists) error
}
