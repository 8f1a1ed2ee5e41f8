package identity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/storage/clientstore"
)

// Accounts is the part of account.Service the local provider needs.
type Accounts interface {
	Authenticate(ctx context.Context, email, pwd string) (account.Account, error)
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// LocalProvider signs in against the portal accounts. The signed-in UID is kept in a credential store so
// that a later process starts signed in.
type LocalProvider struct {
	accounts Accounts
	creds    clientstore.CredentialStore
	notifier
}

var _ session.IdentityProvider = (*LocalProvider)(nil)

// NewLocalProvider restores the identity saved in creds, if its account still exists and is active.
func NewLocalProvider(ctx context.Context, accounts Accounts, creds clientstore.CredentialStore) (*LocalProvider, error) {
	p := &LocalProvider{accounts: accounts, creds: creds}

	uid, err := creds.LoadUID()
	if err != nil {
		return nil, errors.Wrap(err, "loading saved uid")
	}
	if uid == "" {
		return p, nil
	}

	acc, err := accounts.GetByID(ctx, uid)
	switch {
	case errors.Cause(err) == account.ErrNotFound:
		return p, errors.Wrap(creds.SaveUID(""), "clearing saved uid")
	case err != nil:
		return nil, errors.Wrap(err, "restoring saved uid")
	case !acc.IsActive:
		return p, errors.Wrap(creds.SaveUID(""), "clearing saved uid")
	}
	id := acc.Identity()
	p.current = &id
	return p, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	id, err := authenticate(ctx, p.accounts, email, password)
	if err != nil {
		return session.Identity{}, err
	}
	if err = p.creds.SaveUID(id.UID); err != nil {
		return session.Identity{}, errors.Wrap(err, "saving uid")
	}
	p.set(&id)
	return id, nil
}

func (p *LocalProvider) SignOut(_ context.Context) error {
	if err := p.creds.SaveUID(""); err != nil {
		return errors.Wrap(err, "clearing saved uid")
	}
	p.set(nil)
	return nil
}

func (p *LocalProvider) OnAuthStateChanged(fn func(*session.Identity)) func() {
	return p.subscribe(fn)
}

// Current returns the signed-in identity, or nil.
func (p *LocalProvider) Current() *session.Identity {
	return p.identity()
}

// AccountAuthenticator checks credentials against the portal accounts without keeping a signed-in identity.
// The API uses it, one request at a time.
type AccountAuthenticator struct {
	accounts Accounts
}

func NewAccountAuthenticator(accounts Accounts) *AccountAuthenticator {
	return &AccountAuthenticator{accounts: accounts}
}

func (a *AccountAuthenticator) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	return authenticate(ctx, a.accounts, email, password)
}

func authenticate(ctx context.Context, accounts Accounts, email, password string) (session.Identity, error) {
	acc, err := accounts.Authenticate(ctx, email, password)
	if err != nil {
		switch errors.Cause(err) {
		case account.ErrInvalidCredentials, account.ErrAccountDeactivated:
			return session.Identity{}, session.ErrInvalidCredentials
		}
		return session.Identity{}, errors.Wrap(err, "authenticating")
	}
	return acc.Identity(), nil
}
