package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/services/identity"
)

const (
	testClientID = "portal"
	testKeyID    = "k1"
)

// newIssuer serves a minimal OIDC issuer accepting ana@escola.pt / secret.
func newIssuer(t *testing.T) *httptest.Server {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/auth",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKeyID,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "password" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
			return
		}
		if r.PostForm.Get("username") != "ana@escola.pt" || r.PostForm.Get("password") != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}

		now := time.Now()
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss":   srv.URL,
			"sub":   "oidc-ana",
			"aud":   testClientID,
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
			"email": "Ana@Escola.pt",
			"name":  "Ana Silva",
		})
		tok.Header["kid"] = testKeyID
		idToken, err := tok.SignedString(key)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})
	return srv
}

func TestOIDCProvider_SignIn(t *testing.T) {
	ctx := context.Background()
	srv := newIssuer(t)

	conf := core.NewTestConfig()
	conf.Identity.IssuerURL = srv.URL
	conf.Identity.ClientID = testClientID
	p, err := identity.NewOIDCProvider(ctx, conf)
	require.NoError(t, err)

	var events []*session.Identity
	defer p.OnAuthStateChanged(func(id *session.Identity) { events = append(events, id) })()

	tests := []struct {
		name    string
		email   string
		pwd     string
		want    session.Identity
		wantErr error
	}{
		{name: "wrong password", email: "ana@escola.pt", pwd: "nope", wantErr: session.ErrInvalidCredentials},
		{name: "valid", email: "ana@escola.pt", pwd: "secret", want: session.Identity{UID: "oidc-ana", Email: "ana@escola.pt", DisplayName: "Ana Silva"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.SignIn(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, p.SignOut(ctx))
	require.Len(t, events, 3)
	assert.Nil(t, events[0])
	assert.Equal(t, "oidc-ana", events[1].UID)
	assert.Nil(t, events[2])
}

func TestNewOIDCProvider_BadIssuer(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Identity.IssuerURL = "http://127.0.0.1:1"
	_, err := identity.NewOIDCProvider(context.Background(), conf)
	assert.Error(t, err)
}
