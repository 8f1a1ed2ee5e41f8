// Package session resolves who is signed in and with which role.
//
// The identity provider only knows credentials. The role and the display name come from the profile
// record stored under the user's UID, falling back to a local, non-authoritative role hint when no
// record exists yet. Gate keeps the single authoritative Session of a client and publishes every change
// to its subscribers.
package session

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidCredentials is returned when the identity provider rejects an email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileLookup wraps profile store failures on the state-change path.
	ErrProfileLookup = errors.New("profile lookup failed")
	ErrInvalidRole   = errors.New("invalid role")
	ErrNotStarted    = errors.New("session gate not started")
)

type (
	// Session is the resolved, signed-in user.
	Session struct {
		UID         string `json:"uid"`
		Email       string `json:"email,omitempty"`
		DisplayName string `json:"display_name"`
		Role        Role   `json:"role"`
	}

	// Identity is the user as reported by the identity provider.
	Identity struct {
		UID         string
		Email       string
		DisplayName string
	}

	// Profile is the part of the profile record the gate reads. Empty fields are absent.
	Profile struct {
		Role        string
		DisplayName string
	}

	// State is what a Gate publishes. Loading stays true until the first transition has been resolved
	// and while a profile lookup failure (Err) is pending a new sign-in.
	// Seq is the number of the provider transition the state was resolved from; 0 before the first one.
	State struct {
		Session *Session
		Loading bool
		Err     error
		Seq     uint64
	}

	// IdentityProvider authenticates credentials and reports session transitions.
	// OnAuthStateChanged must call fn with the current identity (nil when signed out) on subscription
	// and again on every transition.
	IdentityProvider interface {
		SignIn(ctx context.Context, email, password string) (Identity, error)
		SignOut(ctx context.Context) error
		OnAuthStateChanged(fn func(*Identity)) (unsubscribe func())
	}

	// ProfileStore returns the profile record of uid, or nil when there is none.
	ProfileStore interface {
		LookupProfile(ctx context.Context, uid string) (*Profile, error)
	}

	// HintStore persists the client-side role hint. LoadRoleHint returns "" when unset.
	HintStore interface {
		LoadRoleHint(ctx context.Context) (string, error)
		SaveRoleHint(ctx context.Context, role Role) error
		ClearRoleHint(ctx context.Context) error
	}
)

func (s *Session) HomePath() string {
	if s == nil {
		return "/login"
	}
	return s.Role.HomePath()
}
