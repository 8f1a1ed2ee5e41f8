package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
)

var ErrNotFound = errors.New("profile not found")

type (
	Repository interface {
		GetProfile(ctx context.Context, uid string) (Profile, error)
		QueryProfiles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error)
		UpsertProfile(ctx context.Context, p Profile) (Profile, error)
		DeleteProfile(ctx context.Context, uid string) error
	}

	Service struct {
		repo Repository
	}
)

var _ session.ProfileStore = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LookupProfile returns the session view of the profile of uid, or nil when there is no record.
func (svc *Service) LookupProfile(ctx context.Context, uid string) (*session.Profile, error) {
	p, err := svc.repo.GetProfile(ctx, uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting profile")
	}
	return &session.Profile{Role: string(p.Role), DisplayName: p.DisplayName}, nil
}

func (svc *Service) Get(ctx context.Context, uid string) (Profile, error) {
	return svc.repo.GetProfile(ctx, uid)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error) {
	return svc.repo.QueryProfiles(ctx, filter, ordering)
}

// Upsert creates or replaces the profile of uid. The data must have been validated.
func (svc *Service) Upsert(ctx context.Context, uid string, up UpdateProfile) (Profile, error) {
	if uid == "" {
		return Profile{}, core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "this field is required"})
	}
	return svc.repo.UpsertProfile(ctx, Profile{
		UID:         uid,
		Role:        session.Role(up.Role),
		DisplayName: up.DisplayName,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Delete(ctx context.Context, uid string) error {
	return svc.repo.DeleteProfile(ctx, uid)
}
