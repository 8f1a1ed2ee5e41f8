package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
)

const (
	contextTokenKey = "sessionToken"
	tokenAudience   = "Portal"
)

// Claims represents the resolved session transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64        `json:"oriat,omitempty"`
	Email        string       `json:"email,omitempty"`
	DisplayName  string       `json:"name,omitempty"`
	Role         session.Role `json:"role"`
}

func (c Claims) Session() session.Session {
	return session.Session{UID: c.Subject, Email: c.Email, DisplayName: c.DisplayName, Role: c.Role}
}

func (c Claims) identity() session.Identity {
	return session.Identity{UID: c.Subject, Email: c.Email}
}

func (c Claims) logPerson() core.LogPerson {
	return core.LogPerson{ID: c.Subject, Name: c.DisplayName, Email: c.Email}
}

// tokenIssuer signs and refreshes the API tokens.
type tokenIssuer struct {
	key          []byte
	issuer       string
	expiration   time.Duration
	refreshDelta time.Duration
	now          func() time.Time
}

func newTokenIssuer(conf *core.Config) tokenIssuer {
	return tokenIssuer{
		key:          []byte(conf.SecretKey),
		issuer:       conf.AppName,
		expiration:   conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
		now:          time.Now,
	}
}

func (ti tokenIssuer) middlewareConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    ti.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (ti tokenIssuer) claims(s session.Session, origIat ...int64) *Claims {
	now := ti.now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.issuer,
			Subject:   s.UID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(ti.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        s.Email,
		DisplayName:  s.DisplayName,
		Role:         s.Role,
	}
}

// generate signs claims into a JWT token string.
func (ti tokenIssuer) generate(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// refreshable reports whether a token first issued at origIat may still be refreshed.
func (ti tokenIssuer) refreshable(origIat int64) bool {
	return !ti.now().After(time.Unix(origIat, 0).Add(ti.refreshDelta))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
