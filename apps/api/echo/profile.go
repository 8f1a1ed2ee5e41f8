package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
)

const uidParam = "uid"

type profileHandler struct {
	deps ServerDeps
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	h := profileHandler{deps: deps}

	profiles := g.Group("/profiles", jwt, roleMiddleware(session.RoleAdministrator))
	profiles.GET("", h.list)
	profiles.GET("/:uid", h.retrieve)
	profiles.PUT("/:uid", h.upsert)
	profiles.DELETE("/:uid", h.destroy)
}

func (h *profileHandler) list(ctx echo.Context) error {
	var filter profile.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	filter.Clean()
	var ord Ordering
	ord.Bind(ctx)

	ps, err := h.deps.ProfileSvc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (h *profileHandler) retrieve(ctx echo.Context) error {
	p, err := h.deps.ProfileSvc.Get(ctx.Request().Context(), ctx.Param(uidParam))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// upsert sets the role and display name of a user. The change applies to the user's next token.
func (h *profileHandler) upsert(ctx echo.Context) error {
	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(h.deps.Validate); err != nil {
		return err
	}

	p, err := h.deps.ProfileSvc.Upsert(ctx.Request().Context(), ctx.Param(uidParam), data)
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (h *profileHandler) destroy(ctx echo.Context) error {
	if err := h.deps.ProfileSvc.Delete(ctx.Request().Context(), ctx.Param(uidParam)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
