// Package registry is the authority over live sessions: it allocates ids,
// creates sessions and is the only place they are torn down.
package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/playcore/playcore/errs"
	"github.com/playcore/playcore/log"
	"github.com/playcore/playcore/session"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/slices"
)

// maxParallelReleases bounds concurrent teardown in ReleaseAll.
const maxParallelReleases = 8

type Registry struct {
	opts session.Options

	mu       sync.RWMutex
	sessions map[int64]*session.Session
}

// ids is process-wide so ids are never reused, even across registries.
var ids atomic.Int64

// New returns a registry creating sessions with opts.
func New(opts session.Options) *Registry {
	return &Registry{
		opts:     opts,
		sessions: make(map[int64]*session.Session),
	}
}

// Create allocates the next id and registers a new session.
func (r *Registry) Create(ctx context.Context) (int64, error) {
	return r.create(ctx, r.opts)
}

// CreateWith is Create with per-session overrides of the wants flags.
func (r *Registry) CreateWith(ctx context.Context, requestAudioFocus, requestScreenOn bool) (int64, error) {
	opts := r.opts
	opts.RequestAudioFocus = requestAudioFocus
	opts.RequestScreenOn = requestScreenOn
	return r.create(ctx, opts)
}

func (r *Registry) create(ctx context.Context, opts session.Options) (int64, error) {
	id := ids.Add(1)

	s, err := session.New(ctx, id, opts)
	if err != nil {
		log.Session(id).Warnf("create: %s", err)
		return 0, err
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	log.Session(id).Info("session registered")
	return id, nil
}

// Get returns session id or not_found.
func (r *Registry) Get(id int64) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, errs.Missing("get", id)
	}
	return s, nil
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []int64 {
	r.mu.RLock()
	keys := lo.Keys(r.sessions)
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Release tears session id down and removes it. The entry is removed even
// when teardown reports a timeout or engine error.
func (r *Registry) Release(ctx context.Context, id int64) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return errs.Missing("release", id)
	}

	err := s.Release(ctx)
	if err != nil {
		log.Session(id).Warnf("release: %s", err)
	} else {
		log.Session(id).Info("session released")
	}
	return err
}

// ReleaseAll releases every session. Individual failures never stop the
// others; they are joined into the returned error.
func (r *Registry) ReleaseAll(ctx context.Context) error {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[int64]*session.Session)
	r.mu.Unlock()

	p := pool.New().WithErrors().WithMaxGoroutines(maxParallelReleases)
	for id, s := range all {
		p.Go(func() error {
			if err := s.Release(ctx); err != nil {
				log.Session(id).Warnf("release all: %s", err)
				return err
			}
			return nil
		})
	}
	return p.Wait()
}

// Probe checks that the engine backend loads by creating and releasing a
// placeholder session.
func (r *Registry) Probe(ctx context.Context) error {
	if r.opts.Factory == nil {
		return errs.Unavailable("probe", errors.New("no engine configured"))
	}
	if err := r.opts.Factory.Available(ctx); err != nil {
		return errs.Unavailable("probe", err)
	}

	placeholder := r.opts
	placeholder.Factory = nil

	id, err := r.create(ctx, placeholder)
	if err != nil {
		return err
	}
	return r.Release(ctx, id)
}
