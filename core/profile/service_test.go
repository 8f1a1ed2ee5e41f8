package profile_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	inmemdb "github.com/apoiopedagogico/portal/storage/database/inmem"
	testutil "github.com/apoiopedagogico/portal/tests"
)

type failingRepo struct {
	profile.Repository
}

func (failingRepo) GetProfile(context.Context, string) (profile.Profile, error) {
	return profile.Profile{}, errors.New("connection refused")
}

func TestService_LookupProfile(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewProfileRepository(inmemdb.Open())
	svc := profile.NewService(repo)

	testutil.CreateProfile(t, repo, "admin-uid", session.RoleAdministrator, "Maria")
	testutil.CreateProfile(t, repo, "bare-uid", "", "")

	tests := []struct {
		name string
		uid  string
		want *session.Profile
	}{
		{name: "absent", uid: "nobody", want: nil},
		{name: "full", uid: "admin-uid", want: &session.Profile{Role: "administrator", DisplayName: "Maria"}},
		{name: "empty fields", uid: "bare-uid", want: &session.Profile{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.LookupProfile(ctx, tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		_, err := profile.NewService(failingRepo{}).LookupProfile(ctx, "admin-uid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestService_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewProfileRepository(inmemdb.Open())
	svc := profile.NewService(repo)
	validate, _ := testutil.NewValidator()

	t.Run("invalid role", func(t *testing.T) {
		up := profile.UpdateProfile{Role: "superuser"}
		assert.Error(t, up.Validate(validate))
	})

	up := profile.UpdateProfile{Role: " Administrator ", DisplayName: " Maria "}
	require.NoError(t, up.Validate(validate))
	p, err := svc.Upsert(ctx, "uid-1", up)
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdministrator, p.Role)
	assert.Equal(t, "Maria", p.DisplayName)

	_, err = svc.Upsert(ctx, "", up)
	assert.Error(t, err)

	admins, err := svc.Query(ctx, &profile.QueryFilter{Roles: []string{"administrator"}}, nil)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	require.NoError(t, svc.Delete(ctx, "uid-1"))
	got, err := svc.LookupProfile(ctx, "uid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
