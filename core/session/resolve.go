package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

// Resolver turns a provider Identity into a Session using the profile store.
type Resolver struct {
	profiles ProfileStore
}

func NewResolver(profiles ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve reads the profile record of id.UID and resolves the Session. hint is only used when no
// record exists; invalid hints are ignored.
func (r *Resolver) Resolve(ctx context.Context, id Identity, hint string) (*Session, error) {
	profile, err := r.profiles.LookupProfile(ctx, id.UID)
	if err != nil {
		return nil, errors.Wrapf(ErrProfileLookup, "uid %s: %v", id.UID, err)
	}
	s := resolve(id, profile, hint)
	return &s, nil
}

func resolve(id Identity, profile *Profile, hint string) Session {
	var role Role
	var displayName string

	if profile != nil {
		role = DefaultRole
		if r, ok := ParseRole(profile.Role); ok {
			role = r
		}
		displayName = core.CleanString(profile.DisplayName)
	} else {
		role = DefaultRole
		if r, ok := ParseRole(hint); ok {
			role = r
		}
	}

	if displayName == "" {
		displayName = core.CleanString(id.DisplayName)
	}
	if displayName == "" {
		displayName = role.DefaultLabel()
	}

	return Session{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: displayName,
		Role:        role,
	}
}
