package clientstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/apoiopedagogico/portal/core/session"
)

const (
	roleHintKey = "role_hint"
	uidKey      = "uid"
)

// FileStore keeps the client state in a YAML file managed by viper.
type FileStore struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

var (
	_ session.HintStore = (*FileStore)(nil)
	_ CredentialStore   = (*FileStore)(nil)
)

// NewFileStore opens the store at path. A missing file is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(roleHintKey, "")
	v.SetDefault(uidKey, "")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, errors.Wrapf(err, "reading client store %s", path)
		}
	}
	return &FileStore{path: path, v: v}, nil
}

func (s *FileStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(key)
}

func (s *FileStore) set(key, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, val)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating client store directory")
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errors.Wrapf(err, "writing client store %s", s.path)
	}
	return os.Chmod(s.path, 0o600)
}

func (s *FileStore) LoadRoleHint(_ context.Context) (string, error) {
	return s.get(roleHintKey), nil
}

func (s *FileStore) SaveRoleHint(_ context.Context, role session.Role) error {
	return s.set(roleHintKey, string(role))
}

func (s *FileStore) ClearRoleHint(_ context.Context) error {
	return s.set(roleHintKey, "")
}

func (s *FileStore) LoadUID() (string, error) {
	return s.get(uidKey), nil
}

func (s *FileStore) SaveUID(uid string) error {
	return s.set(uidKey, uid)
}
