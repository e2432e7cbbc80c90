package tokencache

import (
	"context"
	"sync"
	"time"

	"bcrelay/pkg/businesscentral"
)

type memEntry struct {
	tok     businesscentral.Token
	expires time.Time
}

// MemoryStore keeps tokens in process.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]memEntry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (businesscentral.Token, bool, error) {
	m.mu.RLock()
	e, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return businesscentral.Token{}, false, nil
	}
	return e.tok, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, tok businesscentral.Token, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = memEntry{tok: tok, expires: m.now().Add(ttl)}
	return nil
}
