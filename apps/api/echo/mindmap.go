package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/mindmap"
)

func registerMindMapAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	g.POST("/mindmaps", func(ctx echo.Context) error {
		if deps.MindMaps == nil {
			return errMindMapsDisabled
		}
		var data mindmap.Request
		if err := ctx.Bind(&data); err != nil {
			return err
		}
		if err := data.Validate(deps.Validate); err != nil {
			return err
		}

		mm, err := deps.MindMaps.Generate(ctx.Request().Context(), data)
		if err != nil {
			return errors.Wrap(err, "generating mind map")
		}
		return ctx.JSON(http.StatusOK, mm)
	}, jwt)
}
