package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
)

const contextTrainerKey = "trainer"

type trainerHandler struct {
	deps ServerDeps
}

func registerTrainerAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	h := trainerHandler{deps: deps}

	trainers := g.Group("/trainers", jwt, roleMiddleware(session.RoleAdministrator))
	trainers.GET("", h.list)
	trainers.POST("", h.create)
	trainers.DELETE("", h.destroyMultiple)
	trainers.GET("/:id", h.retrieve, h.objectMiddleware)
	trainers.PUT("/:id", h.update, h.objectMiddleware)
	trainers.DELETE("/:id", h.destroy, h.objectMiddleware)
}

func (h *trainerHandler) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		t, err := h.deps.TrainerSvc.Get(ctx.Request().Context(), ctx.Param(idParam))
		if err != nil {
			return err
		}
		ctx.Set(contextTrainerKey, t)
		return next(ctx)
	}
}

func (h *trainerHandler) list(ctx echo.Context) error {
	var filter trainer.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	filter.Clean()
	var ord Ordering
	ord.Bind(ctx)

	ts, err := h.deps.TrainerSvc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying trainers")
	}
	return ctx.JSON(http.StatusOK, ts)
}

func (h *trainerHandler) create(ctx echo.Context) error {
	var data trainer.NewTrainer
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(h.deps.Validate); err != nil {
		return err
	}

	t, err := h.deps.TrainerSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating trainer")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (h *trainerHandler) retrieve(ctx echo.Context) error {
	t, ok := ctx.Get(contextTrainerKey).(trainer.Trainer)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, t)
}

func (h *trainerHandler) update(ctx echo.Context) error {
	orig, ok := ctx.Get(contextTrainerKey).(trainer.Trainer)
	if !ok {
		return errHttpNotFound
	}
	var data trainer.UpdateTrainer
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(orig, h.deps.Validate); err != nil {
		return err
	}

	t, err := h.deps.TrainerSvc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating trainer")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (h *trainerHandler) destroy(ctx echo.Context) error {
	t, ok := ctx.Get(contextTrainerKey).(trainer.Trainer)
	if !ok {
		return errHttpNotFound
	}
	if err := h.deps.TrainerSvc.Delete(ctx.Request().Context(), t.ID); err != nil {
		return errors.Wrap(err, "deleting trainer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (h *trainerHandler) destroyMultiple(ctx echo.Context) error {
	if ids := idsParam(ctx); len(ids) > 0 {
		if err := h.deps.TrainerSvc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting trainers")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}
