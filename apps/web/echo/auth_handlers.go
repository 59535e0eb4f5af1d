package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
)

type (
	loginForm struct {
		Email    string `form:"email" validate:"required,email"`
		Password string `form:"password" validate:"required"`
		Next     string `form:"next"`
	}

	loginPage struct {
		Email       string
		Next        string
		Error       string
		FieldErrors map[string]string
	}

	passwordResetForm struct {
		Email string `form:"email" validate:"required,email"`
	}

	passwordResetPage struct {
		Email       string
		Done        bool
		FieldErrors map[string]string
	}

	passwordResetConfirmPage struct {
		UID         string
		Token       string
		Done        bool
		FieldErrors map[string]string
	}
)

const errInvalidLogin = "Please enter a correct email and password."

func registerAuthRoutes(e *echo.Echo, s *Server) {
	h := authHandlers{s}

	e.GET(loginPath, h.loginForm)
	e.POST(loginPath, h.login)
	e.GET("/logout", h.logout, loginRequired)

	// TODO: rate limit `/password-reset` & `/password-reset/confirm`
	e.GET("/password-reset", h.passwordResetForm)
	e.POST("/password-reset", h.passwordReset)
	e.GET("/password-reset/confirm", h.passwordResetConfirmForm)
	e.POST("/password-reset/confirm", h.passwordResetConfirm)
}

type authHandlers struct {
	*Server
}

func (h authHandlers) loginForm(ctx echo.Context) error {
	if _, ok := getContextUser(ctx); ok {
		return ctx.Redirect(http.StatusFound, safeNext(ctx.QueryParam("next")))
	}
	return h.render(ctx, http.StatusOK, "login", loginPage{Next: ctx.QueryParam("next")})
}

func (h authHandlers) login(ctx echo.Context) error {
	var data loginForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	page := loginPage{Email: data.Email, Next: data.Next}

	if err := h.deps.Validate.Struct(data); err != nil {
		fldErrs, ok := core.FieldErrors(err, h.deps.Translator)
		if !ok {
			return errors.Wrap(err, "validating loginForm")
		}
		page.FieldErrors = fldErrs
		return h.render(ctx, http.StatusOK, "login", page)
	}

	reqCtx := ctx.Request().Context()
	usr, err := h.deps.UserSvc.Authenticate(reqCtx, data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			page.Error = errInvalidLogin
			return h.render(ctx, http.StatusOK, "login", page)
		}
		return errors.Wrap(err, "authenticating")
	}
	if usr, err = h.deps.UserSvc.SetLastLogin(reqCtx, usr); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	if err = h.sessions.login(ctx, usr); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.Redirect(http.StatusFound, safeNext(data.Next))
}

func (h authHandlers) logout(ctx echo.Context) error {
	h.sessions.logout(ctx)
	return ctx.Redirect(http.StatusFound, loginPath)
}

func (h authHandlers) passwordResetForm(ctx echo.Context) error {
	return h.render(ctx, http.StatusOK, "password_reset", passwordResetPage{})
}

func (h authHandlers) passwordReset(ctx echo.Context) error {
	var data passwordResetForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to passwordResetForm")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := h.deps.Validate.Struct(data); err != nil {
		fldErrs, _ := core.FieldErrors(err, h.deps.Translator)
		return h.render(ctx, http.StatusOK, "password_reset", passwordResetPage{Email: data.Email, FieldErrors: fldErrs})
	}

	err := h.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		// do not return errors to attackers
		h.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return h.render(ctx, http.StatusOK, "password_reset", passwordResetPage{Done: true})
}

func (h authHandlers) passwordResetConfirmForm(ctx echo.Context) error {
	return h.render(ctx, http.StatusOK, "password_reset_confirm", passwordResetConfirmPage{
		UID:   ctx.QueryParam("uid"),
		Token: ctx.QueryParam("token"),
	})
}

func (h authHandlers) passwordResetConfirm(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	page := passwordResetConfirmPage{UID: data.UID, Token: data.Token}

	err := data.Validate(h.deps.Validate)
	if err == nil {
		err = h.deps.UserSvc.ResetPassword(ctx.Request().Context(), data)
	}
	if err != nil {
		fldErrs, ok := core.FieldErrors(err, h.deps.Translator)
		if !ok {
			return errors.Wrap(err, "resetting password")
		}
		page.FieldErrors = fldErrs
		return h.render(ctx, http.StatusOK, "password_reset_confirm", page)
	}
	page.Done = true
	return h.render(ctx, http.StatusOK, "password_reset_confirm", page)
}
