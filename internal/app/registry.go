package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/store"
)

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Registry is the single owner of all live sessions. Each entry carries
// its own mutex so roster mutations on one session serialize without
// blocking the others; every mutation schedules one coalesced
// asynchronous snapshot save through a single writer goroutine.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.MessageID]*sessionEntry

	snap   *store.Snapshot
	saveCh chan struct{}
	doneCh chan struct{}
}

// NewRegistry restores state from the snapshot store and starts the
// saver goroutine.
func NewRegistry(snap *store.Snapshot) *Registry {
	r := &Registry{
		sessions: make(map[domain.MessageID]*sessionEntry),
		snap:     snap,
		saveCh:   make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
	}
	for id, s := range snap.Load() {
		s.EnsureInit()
		r.sessions[id] = &sessionEntry{session: s}
	}
	go r.saver()
	return r
}

// Create inserts a session under the announcement-message identity the
// caller obtained from the chat platform.
func (r *Registry) Create(id domain.MessageID, channel domain.ChannelID, mode domain.Mode, startTime string) *domain.Session {
	s := domain.NewSession(id, channel, mode, startTime)
	r.mu.Lock()
	r.sessions[id] = &sessionEntry{session: s}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("id", string(id)).Str("mode", string(mode)).Msg("session created")
	r.ScheduleSave()
	return s
}

// Snapshot returns a deep copy of one session, or nil if absent.
func (r *Registry) Snapshot(id domain.MessageID) *domain.Session {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

func (r *Registry) Has(id domain.MessageID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

func (r *Registry) Delete(id domain.MessageID) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("session deleted")
		r.ScheduleSave()
	}
}

func (r *Registry) IDs() []domain.MessageID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MessageID, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// LatestInChannel resolves the newest recruitment in a channel, for
// commands that do not carry a message reference. Message ids are
// snowflakes: a longer decimal string is newer, ties break lexically.
func (r *Registry) LatestInChannel(ch domain.ChannelID) (domain.MessageID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best domain.MessageID
	found := false
	for id, e := range r.sessions {
		e.mu.Lock()
		match := e.session.ChannelID == ch
		e.mu.Unlock()
		if !match {
			continue
		}
		if !found || snowflakeLess(best, id) {
			best = id
			found = true
		}
	}
	return best, found
}

func snowflakeLess(a, b domain.MessageID) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// WithSession runs fn under the session's own lock and returns false if
// the id is unknown. The lookup resolves at call time, so actions keep
// working across a concurrent rekey. fn must not block on I/O.
func (r *Registry) WithSession(id domain.MessageID, fn func(*domain.Session)) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	fn(e.session)
	e.mu.Unlock()
	return true
}

// Rekey moves a session to a new identity. Used only by recovery when
// the original announcement vanished. No-op when oldID is absent. The
// entry keeps its mutex, so mutations racing the move are not lost.
func (r *Registry) Rekey(oldID, newID domain.MessageID) {
	r.mu.Lock()
	e, ok := r.sessions[oldID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, oldID)
	r.sessions[newID] = e
	r.mu.Unlock()

	e.mu.Lock()
	e.session.ID = newID
	e.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("old", string(oldID)).Str("new", string(newID)).Msg("session rekeyed")
	r.ScheduleSave()
}

// ScheduleSave requests an asynchronous snapshot write. Callers never
// block; bursts coalesce into one write.
func (r *Registry) ScheduleSave() {
	select {
	case r.saveCh <- struct{}{}:
	default:
	}
}

// Close stops the saver and performs a final synchronous save.
func (r *Registry) Close() {
	close(r.doneCh)
	r.saveNow()
}

func (r *Registry) saver() {
	for {
		select {
		case <-r.doneCh:
			return
		case <-r.saveCh:
			r.saveNow()
		}
	}
}

func (r *Registry) saveNow() {
	r.mu.RLock()
	entries := make(map[domain.MessageID]*sessionEntry, len(r.sessions))
	for id, e := range r.sessions {
		entries[id] = e
	}
	r.mu.RUnlock()

	out := make(map[domain.MessageID]*domain.Session, len(entries))
	for id, e := range entries {
		e.mu.Lock()
		out[id] = e.session.Clone()
		e.mu.Unlock()
	}

	if err := r.snap.Save(out); err != nil {
		// Degrade to in-memory only until the next successful save.
		log.Error().Err(err).Str("module", "app.registry").Msg("snapshot save failed")
	}
}
