package profile

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Gateway loads and saves whole profiles. Implemented by storage.Store and
// by Manager.
type Gateway interface {
	Load(ctx context.Context, id string) (Profile, error)
	Save(ctx context.Context, p Profile) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

type cacheEntry struct {
	profile  Profile
	cachedAt time.Time
}

// Manager is a read-through cache in front of a Gateway. Writes go to the
// store first; the cached copy is only replaced after the store accepts it.
type Manager struct {
	store Gateway
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store Gateway) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Gateway, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// Load returns a private copy of the profile.
func (m *Manager) Load(ctx context.Context, id string) (Profile, error) {
	m.mu.RLock()
	if e, ok := m.cache[id]; ok && m.fresh(e) {
		p := e.profile.Clone()
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cache[id]; ok && m.fresh(e) {
		return e.profile.Clone(), nil
	}

	p, err := m.store.Load(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	m.cache[id] = cacheEntry{profile: p.Clone(), cachedAt: m.clock.Now()}
	return p, nil
}

// Save writes p through to the store. A failed write drops the cached entry
// so the next Load reads what the store actually holds.
func (m *Manager) Save(ctx context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, p); err != nil {
		delete(m.cache, p.ID)
		return fmt.Errorf("saving profile %s: %w", p.ID, err)
	}
	m.cache[p.ID] = cacheEntry{profile: p.Clone(), cachedAt: m.clock.Now()}
	return nil
}

func (m *Manager) fresh(e cacheEntry) bool {
	return m.clock.Now().Before(e.cachedAt.Add(m.ttl))
}
