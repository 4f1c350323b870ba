package tui

import (
	"github.com/mmcdole/moviedeck/internal/domain"
	"github.com/mmcdole/moviedeck/internal/imagecache"
)

type posterLoader struct {
	loader      *imagecache.Loader
	unsubscribe func()
}

// posterSet owns the loaders for the visible and prefetched cards and the
// list covers. Loaders for movies that leave the set are closed, which
// unpins their images.
type posterSet struct {
	cache    *imagecache.Cache
	observer *PosterObserver
	loaders  map[domain.ImageKey]*posterLoader
}

func newPosterSet(cache *imagecache.Cache) *posterSet {
	return &posterSet{
		cache:    cache,
		observer: NewPosterObserver(),
		loaders:  make(map[domain.ImageKey]*posterLoader),
	}
}

// sync starts loaders for movies and closes the rest
func (p *posterSet) sync(movies []domain.Movie) {
	if p.cache == nil {
		return
	}
	wanted := make(map[domain.ImageKey]struct{}, len(movies))
	for _, m := range movies {
		key := posterKey(m)
		wanted[key] = struct{}{}
		if _, ok := p.loaders[key]; ok {
			continue
		}
		l := imagecache.NewLoader(p.cache, key.Path, key.Size)
		p.loaders[key] = &posterLoader{loader: l, unsubscribe: p.observer.Watch(l)}
		l.Load()
	}
	for key, pl := range p.loaders {
		if _, ok := wanted[key]; ok {
			continue
		}
		pl.unsubscribe()
		pl.loader.Close()
		delete(p.loaders, key)
	}
}

func (p *posterSet) get(key domain.ImageKey) *imagecache.Loader {
	if pl, ok := p.loaders[key]; ok {
		return pl.loader
	}
	return nil
}

// retry restarts a missing poster
func (p *posterSet) retry(key domain.ImageKey) {
	l := p.get(key)
	if l == nil || l.State() != imagecache.StateMissing {
		return
	}
	l.Reset()
	l.Load()
}

func (p *posterSet) close() {
	for key, pl := range p.loaders {
		pl.unsubscribe()
		pl.loader.Close()
		delete(p.loaders, key)
	}
}
