package identity

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
)

var errMissingIDToken = errors.New("token response has no id_token")

// OIDCProvider signs in with the resource owner password grant of an OpenID Connect issuer. Sessions only
// live as long as the process.
type OIDCProvider struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
	notifier
}

var _ session.IdentityProvider = (*OIDCProvider)(nil)

type idClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewOIDCProvider discovers the issuer configuration. ctx is also used for the key set fetches of later
// verifications, so it must outlive the provider.
func NewOIDCProvider(ctx context.Context, conf *core.Config) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, conf.Identity.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "discovering OIDC issuer")
	}
	return &OIDCProvider{
		config: oauth2.Config{
			ClientID:     conf.Identity.ClientID,
			ClientSecret: conf.Identity.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: conf.Identity.ClientID}),
	}, nil
}

func (p *OIDCProvider) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	id, err := p.Authenticate(ctx, email, password)
	if err != nil {
		return session.Identity{}, err
	}
	p.set(&id)
	return id, nil
}

// Authenticate exchanges the credentials for a verified id_token without changing the signed-in identity.
func (p *OIDCProvider) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	tok, err := p.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil &&
			(rErr.Response.StatusCode == http.StatusBadRequest || rErr.Response.StatusCode == http.StatusUnauthorized) {
			return session.Identity{}, session.ErrInvalidCredentials
		}
		return session.Identity{}, errors.Wrap(err, "requesting token")
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return session.Identity{}, errMissingIDToken
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "verifying id_token")
	}
	var claims idClaims
	if err = idToken.Claims(&claims); err != nil {
		return session.Identity{}, errors.Wrap(err, "decoding id_token claims")
	}

	id := session.Identity{
		UID:         idToken.Subject,
		Email:       core.CleanString(claims.Email, true /* lower */),
		DisplayName: core.CleanString(claims.Name),
	}
	return id, nil
}

func (p *OIDCProvider) SignOut(_ context.Context) error {
	p.set(nil)
	return nil
}

func (p *OIDCProvider) OnAuthStateChanged(fn func(*session.Identity)) func() {
	return p.subscribe(fn)
}

func (p *OIDCProvider) Current() *session.Identity {
	return p.identity()
}
