package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/session"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SessionResponse struct {
		Token    string          `json:"token,omitempty"`
		Session  session.Session `json:"session"`
		HomePath string          `json:"home_path"`
	}

	sessionHandler struct {
		deps   ServerDeps
		tokens tokenIssuer
	}
)

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, tokens tokenIssuer, deps ServerDeps) {
	h := sessionHandler{deps: deps, tokens: tokens}

	auth := g.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout, jwt)
	auth.POST("/token-refresh", h.refreshToken, jwt)
	auth.GET("/me", h.me, jwt)
	if deps.AccountSvc != nil {
		registerPasswordAPI(auth, deps)
	}
}

func (h *sessionHandler) respond(ctx echo.Context, code int, s session.Session, origIat ...int64) error {
	token, err := h.tokens.generate(h.tokens.claims(s, origIat...))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, SessionResponse{Token: token, Session: s, HomePath: s.HomePath()})
}

func (h *sessionHandler) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := h.deps.Validate.Struct(data); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	id, err := h.deps.Auth.Authenticate(rctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	// only the profile record grants roles here, client-side hints are not trusted
	s, err := h.deps.Resolver.Resolve(rctx, id, "")
	if err != nil {
		return err
	}
	return h.respond(ctx, http.StatusOK, *s)
}

// logout is stateless: clients drop their token.
func (h *sessionHandler) logout(ctx echo.Context) error {
	return ctx.NoContent(http.StatusNoContent)
}

func (h *sessionHandler) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	s := claims.Session()
	return ctx.JSON(http.StatusOK, SessionResponse{Session: s, HomePath: s.HomePath()})
}

// refreshToken resolves the session again, so that profile changes apply to the new token.
// The role of the old token is not carried over.
func (h *sessionHandler) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !h.tokens.refreshable(claims.OrigIssuedAt) {
		return errRefreshExpired
	}

	id := claims.identity()
	id.DisplayName = claims.DisplayName
	s, err := h.deps.Resolver.Resolve(ctx.Request().Context(), id, "")
	if err != nil {
		return err
	}
	return h.respond(ctx, http.StatusOK, *s, claims.OrigIssuedAt)
}
