package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
)

const contextFormationKey = "formation"

type formationHandler struct {
	deps ServerDeps
}

// registerPublicAPI serves the unauthenticated formation report. GET /formation (no id) answers 400.
func registerPublicAPI(g *echo.Group, svc *formation.Service, m *metrics) {
	summary := func(ctx echo.Context) error {
		res, err := svc.PublicSummary(ctx.Request().Context(), ctx.Param(idParam))
		switch errors.Cause(err) {
		case nil:
			m.summaries.WithLabelValues("ok").Inc()
		case formation.ErrMissingIdentifier:
			m.summaries.WithLabelValues("missing_id").Inc()
		case formation.ErrNotFound:
			m.summaries.WithLabelValues("not_found").Inc()
		default:
			m.summaries.WithLabelValues("error").Inc()
		}
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, res)
	}
	g.GET("/formation", summary)
	g.GET("/formation/:id", summary)
}

func registerFormationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	h := formationHandler{deps: deps}

	formations := g.Group("/formations", jwt, roleMiddleware(session.RoleAdministrator))
	formations.GET("", h.list)
	formations.POST("", h.create)
	formations.DELETE("", h.destroyMultiple)
	formations.GET("/:id", h.retrieve, h.objectMiddleware)
	formations.PUT("/:id", h.update, h.objectMiddleware)
	formations.DELETE("/:id", h.destroy, h.objectMiddleware)

	g.GET("/me/formations", h.listMine, jwt, roleMiddleware(session.RoleTrainer))
}

func (h *formationHandler) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		f, err := h.deps.FormationSvc.Get(ctx.Request().Context(), ctx.Param(idParam))
		if err != nil {
			return err
		}
		ctx.Set(contextFormationKey, f)
		return next(ctx)
	}
}

func (h *formationHandler) list(ctx echo.Context) error {
	var filter formation.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	filter.Clean()
	var ord Ordering
	ord.Bind(ctx)

	fs, err := h.deps.FormationSvc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying formations")
	}
	return ctx.JSON(http.StatusOK, fs)
}

// listMine returns the formations of the trainer linked to the signed-in account.
// Sessions without a linked trainer get an empty list.
func (h *formationHandler) listMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	t, err := h.deps.TrainerSvc.GetByAccountID(rctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == trainer.ErrNotFound {
			return ctx.JSON(http.StatusOK, []formation.Formation{})
		}
		return errors.Wrap(err, "finding linked trainer")
	}

	var ord Ordering
	ord.Bind(ctx)
	fs, err := h.deps.FormationSvc.QueryForTrainer(rctx, t.ID, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying trainer formations")
	}
	return ctx.JSON(http.StatusOK, fs)
}

func (h *formationHandler) create(ctx echo.Context) error {
	var data formation.NewFormation
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, h.deps.Validate, h.deps.TrainerSvc); err != nil {
		return err
	}

	f, err := h.deps.FormationSvc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating formation")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (h *formationHandler) retrieve(ctx echo.Context) error {
	f, ok := ctx.Get(contextFormationKey).(formation.Formation)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, f)
}

func (h *formationHandler) update(ctx echo.Context) error {
	orig, ok := ctx.Get(contextFormationKey).(formation.Formation)
	if !ok {
		return errHttpNotFound
	}
	var data formation.UpdateFormation
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, orig, h.deps.Validate, h.deps.TrainerSvc); err != nil {
		return err
	}

	f, err := h.deps.FormationSvc.Update(rctx, orig, data)
	if err != nil {
		return errors.Wrap(err, "updating formation")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (h *formationHandler) destroy(ctx echo.Context) error {
	f, ok := ctx.Get(contextFormationKey).(formation.Formation)
	if !ok {
		return errHttpNotFound
	}
	if err := h.deps.FormationSvc.Delete(ctx.Request().Context(), f.ID); err != nil {
		return errors.Wrap(err, "deleting formation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (h *formationHandler) destroyMultiple(ctx echo.Context) error {
	if ids := idsParam(ctx); len(ids) > 0 {
		if err := h.deps.FormationSvc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting formations")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
