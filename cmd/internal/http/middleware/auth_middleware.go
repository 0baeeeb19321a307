package middleware

import (
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(token string) (*entity.User, *utils.TokenData, apierror.ErrorResponse)
}

type AuthMiddlewareConfig struct {
	Auth Authenticator
}

// NewAuthMiddleware guards API routes with a bearer Cognito ID token.
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return c.JSON(apierror.UnauthorizedError.Code(), apierror.UnauthorizedError)
			}

			user, token, apierr := cfg.Auth.Authenticate(header)
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(utils.ContextKeyUser, user)
			c.Set(utils.ContextKeySub, token.Sub)
			c.Set(utils.ContextKeyToken, token)
			return next(c)
		}
	}
}
