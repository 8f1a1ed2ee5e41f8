package clientstore

import (
	"context"
	"sync"

	"github.com/apoiopedagogico/portal/core/session"
)

// MemoryStore keeps the role hint and the signed-in UID for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	hint string
	uid  string
}

var (
	_ session.HintStore = (*MemoryStore)(nil)
	_ CredentialStore   = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadRoleHint(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hint, nil
}

func (s *MemoryStore) SaveRoleHint(_ context.Context, role session.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = string(role)
	return nil
}

func (s *MemoryStore) ClearRoleHint(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = ""
	return nil
}

func (s *MemoryStore) LoadUID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid, nil
}

func (s *MemoryStore) SaveUID(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
	return nil
}
