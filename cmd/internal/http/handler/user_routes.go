package handler

import (
	"context"
	"net/http"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AuthService interface {
	SignUp(ctx context.Context, req *contract.SignUpRequest) (*contract.UserResponse, apierror.ErrorResponse)
	ConfirmSignup(ctx context.Context, req *contract.ConfirmSignupRequest) apierror.ErrorResponse
	ResendConfirmation(ctx context.Context, req *contract.ResendConfirmRequest) apierror.ErrorResponse
	SignIn(ctx context.Context, req *contract.SignInRequest) (*service.SignInResult, apierror.ErrorResponse)
	SignOut(ctx context.Context, req *contract.SignOutRequest) apierror.ErrorResponse
}

// ConnectionCloser drops the live socket connections of a user.
type ConnectionCloser interface {
	CloseUserConnections(ctx context.Context, userID int64)
}

type DefaultUserRoute struct {
	AuthService AuthService
	Connections ConnectionCloser
}

func NewUserDefault(authService AuthService, conns ConnectionCloser) *DefaultUserRoute {
	return &DefaultUserRoute{AuthService: authService, Connections: conns}
}

func (u *DefaultUserRoute) CreateUser(c echo.Context) error {
	var req contract.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	user, apierr := u.AuthService.SignUp(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, user)
}

func (u *DefaultUserRoute) CreateLogin(c echo.Context) error {
	var req contract.SignInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := u.AuthService.SignIn(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result.Response())
}

func (u *DefaultUserRoute) ConfirmSignup(c echo.Context) error {
	var req contract.ConfirmSignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	if apierr := u.AuthService.ConfirmSignup(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (u *DefaultUserRoute) ResendConfirmation(c echo.Context) error {
	var req contract.ResendConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	if apierr := u.AuthService.ResendConfirmation(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

// Logout runs behind the auth middleware, so the caller is known.
func (u *DefaultUserRoute) Logout(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.SignOutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	if apierr := u.AuthService.SignOut(c.Request().Context(), &req); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if u.Connections != nil {
		u.Connections.CloseUserConnections(c.Request().Context(), user.ID)
	}
	return c.NoContent(http.StatusNoContent)
}
