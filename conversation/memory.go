package conversation

import (
	"context"
	"sync"
	"time"
)

type memKey struct {
	actorID int64
	kind    FlowKind
}

type memEntry struct {
	s         Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Suitable for a single process and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memKey]memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memKey]memEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, actorID int64, kind FlowKind) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{actorID, kind}
	e, ok := m.entries[k]
	if !ok {
		return Session{}, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, k)
		return Session{}, false, nil
	}
	return e.s, true, nil
}

func (m *MemoryStore) Put(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memKey{s.ActorID, s.Kind}] = memEntry{s: s, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, actorID int64, kind FlowKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memKey{actorID, kind})
	return nil
}

// DeleteExpired drops expired sessions and returns how many were removed.
func (m *MemoryStore) DeleteExpired(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}
