package clientstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core/session"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client", "state.yaml")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	hint, err := s.LoadRoleHint(ctx)
	require.NoError(t, err)
	assert.Empty(t, hint)

	require.NoError(t, s.SaveRoleHint(ctx, session.RoleAdministrator))
	require.NoError(t, s.SaveUID("uid-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a new process sees the same state
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	hint, _ = reopened.LoadRoleHint(ctx)
	uid, _ := reopened.LoadUID()
	assert.Equal(t, "administrator", hint)
	assert.Equal(t, "uid-1", uid)

	require.NoError(t, reopened.ClearRoleHint(ctx))
	hint, _ = reopened.LoadRoleHint(ctx)
	assert.Empty(t, hint)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SaveRoleHint(ctx, session.RoleTrainer))
	hint, _ := s.LoadRoleHint(ctx)
	assert.Equal(t, "trainer", hint)

	require.NoError(t, s.ClearRoleHint(ctx))
	hint, _ = s.LoadRoleHint(ctx)
	assert.Empty(t, hint)
}
