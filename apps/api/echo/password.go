package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
)

type (
	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	passwordHandler struct {
		svc      *account.Service
		validate *validator.Validate
		logger   core.Logger
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func registerPasswordAPI(g *echo.Group, deps ServerDeps) {
	h := passwordHandler{svc: deps.AccountSvc, validate: deps.Validate, logger: deps.Logger}

	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	g.POST("/password-reset", h.requestReset)
	g.POST("/password-reset-confirm", h.confirmReset)
}

func (h *passwordHandler) requestReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(h.validate); err != nil {
		return err
	}

	err := h.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	switch errors.Cause(err) {
	case nil, account.ErrNotFound, account.ErrAccountDeactivated:
	default:
		// do not return errors to attackers
		h.logger.Error(fmt.Sprintf("%+v", errors.Wrap(err, "requesting password reset")), err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (h *passwordHandler) confirmReset(ctx echo.Context) error {
	var data account.ResetAccountPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAccountPassword")
	}
	if err := data.Validate(h.validate); err != nil {
		return err
	}

	if _, err := h.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
