// Package history remembers where playback of each source stopped.
package history

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/playcore/playcore/filesystem"
	"github.com/playcore/playcore/log"
	"github.com/samber/mo"
)

// Position is the last recorded playback position of a source.
type Position struct {
	Source    string    `json:"source"`
	Position  int64     `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resumable reports whether playback should seek before starting.
func (p *Position) Resumable() bool {
	return p.Position > 0
}

type cache interface {
	Get() (map[string]*Position, bool, error)
	Set(map[string]*Position) error
}

// Store persists positions as a JSON map keyed by source.
type Store struct {
	mu     sync.Mutex
	cacher cache
}

// Open returns a store backed by the file at path on the active filesystem.
func Open(path string) *Store {
	return &Store{
		cacher: gache.New[map[string]*Position](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

// Get returns every saved position.
func (s *Store) Get() (map[string]*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get()
}

func (s *Store) get() (map[string]*Position, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Position), nil
	}
	return cached, nil
}

// Lookup returns the saved position of source, if any.
func (s *Store) Lookup(source string) mo.Option[*Position] {
	saved, err := s.Get()
	if err != nil {
		log.Warnf("history lookup: %s", err)
		return mo.None[*Position]()
	}

	p, ok := saved[source]
	if !ok {
		return mo.None[*Position]()
	}
	return mo.Some(p)
}

// Save records position for source, replacing any previous entry.
func (s *Store) Save(source string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.get()
	if err != nil {
		return err
	}

	saved[source] = &Position{
		Source:    source,
		Position:  position,
		UpdatedAt: time.Now(),
	}
	return s.cacher.Set(saved)
}

// Remove forgets source.
func (s *Store) Remove(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.get()
	if err != nil {
		return err
	}

	delete(saved, source)
	return s.cacher.Set(saved)
}

// Record saves position and logs failures. Sessions call it on stop and release.
func (s *Store) Record(source string, position int64) {
	if err := s.Save(source, position); err != nil {
		log.WithField("source", source).Warnf("save position: %s", err)
	}
}
