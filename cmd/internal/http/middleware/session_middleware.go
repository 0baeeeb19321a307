package middleware

import (
	"net/http"

	"notesweb/cmd/internal/http/session"
	"notesweb/cmd/internal/utils"

	"github.com/labstack/echo/v4"
)

const SignInPath = "/signin"

// NewSessionMiddleware lets through requests carrying a live session cookie
// and sends everyone else to the sign in page.
func NewSessionMiddleware(store *session.Store, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := store.Lookup(c)
			if !ok {
				session.ClearCookie(c, secureCookie)
				return c.Redirect(http.StatusSeeOther, SignInPath)
			}

			c.Set(session.ContextKey, sess)
			c.Set(utils.ContextKeyUser, sess.User)
			c.Set(utils.ContextKeySub, sess.User.SubUUID)
			return next(c)
		}
	}
}
