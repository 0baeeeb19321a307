package utils

import (
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	ContextKeyUser  = "user"
	ContextKeySub   = "sub"
	ContextKeyToken = "token"
)

func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	val := c.Get(ContextKeyUser)
	if val == nil {
		log.Warnf("route %s attempted to read nil user from context", c.Request().URL)
		return nil, apierror.UnauthorizedError
	}

	user, ok := val.(*entity.User)
	if !ok {
		log.Warnf("expected user type at '%s' context key, got %T", ContextKeyUser, val)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

// GetTokenFromContext returns the verified token data stored by the auth middleware.
func GetTokenFromContext(c echo.Context) (*TokenData, apierror.ErrorResponse) {
	token, ok := c.Get(ContextKeyToken).(*TokenData)
	if !ok || token == nil {
		return nil, apierror.UnauthorizedError
	}
	return token, nil
}
