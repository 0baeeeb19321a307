package handler

import (
	"net/http"
	"net/url"
	"time"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/http/session"
	"notesweb/cmd/internal/http/view"
	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

type DefaultPageRoute struct {
	AuthService AuthService
	Notes       service.NoteOperations
	Sessions    *session.Store
	Connections ConnectionCloser

	// URLTTL is the lifetime of the signed URLs. A loaded list older than half
	// of it is refetched before rendering.
	URLTTL       time.Duration
	SecureCookie bool
}

func NewPageDefault(authService AuthService, notes service.NoteOperations, sessions *session.Store, conns ConnectionCloser, urlTTL time.Duration, secureCookie bool) *DefaultPageRoute {
	return &DefaultPageRoute{
		AuthService:  authService,
		Notes:        notes,
		Sessions:     sessions,
		Connections:  conns,
		URLTTL:       urlTTL,
		SecureCookie: secureCookie,
	}
}

func (p *DefaultPageRoute) ShowSignIn(c echo.Context) error {
	if _, ok := p.Sessions.Lookup(c); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	page := p.page(c, "Sign in")
	page.Values["email"] = c.QueryParam("email")
	if c.QueryParam("confirmed") == "1" {
		page.Info = "Your account is confirmed, you can sign in now."
	}
	return c.Render(http.StatusOK, view.PageSignIn, page)
}

func (p *DefaultPageRoute) SignIn(c echo.Context) error {
	var req contract.SignInRequest
	if err := c.Bind(&req); err != nil {
		return p.renderError(c, apierror.MalformedBodyError)
	}

	result, apierr := p.AuthService.SignIn(c.Request().Context(), &req)
	if apierr == apierror.IDPUserNotConfirmedError {
		return c.Redirect(http.StatusSeeOther, "/confirm?email="+url.QueryEscape(req.Email))
	}

	if apierr != nil {
		page := p.page(c, "Sign in")
		page.Values["email"] = req.Email
		return c.Render(apierr.Code(), view.PageSignIn, page.WithError(apierr))
	}

	tokenExpiry := time.Now().Add(time.Duration(result.Tokens.ExpiresIn) * time.Second)
	board := service.NewNoteBoard(p.Notes, result.User)
	sess := p.Sessions.Create(result.User, result.Tokens.AccessToken, result.Tokens.IDToken, tokenExpiry, board)
	session.WriteCookie(c, sess, p.SecureCookie)

	log.Debugf("user %d signed in", result.User.ID)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (p *DefaultPageRoute) ShowSignUp(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageSignUp, p.page(c, "Create account"))
}

func (p *DefaultPageRoute) SignUp(c echo.Context) error {
	var req contract.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return p.renderError(c, apierror.MalformedBodyError)
	}

	if _, apierr := p.AuthService.SignUp(c.Request().Context(), &req); apierr != nil {
		page := p.page(c, "Create account")
		page.Values["username"] = req.Username
		page.Values["email"] = req.Email
		return c.Render(apierr.Code(), view.PageSignUp, page.WithError(apierr))
	}
	return c.Redirect(http.StatusSeeOther, "/confirm?email="+url.QueryEscape(req.Email))
}

func (p *DefaultPageRoute) ShowConfirm(c echo.Context) error {
	page := p.page(c, "Confirm email")
	page.Values["email"] = c.QueryParam("email")
	return c.Render(http.StatusOK, view.PageConfirm, page)
}

func (p *DefaultPageRoute) Confirm(c echo.Context) error {
	var req contract.ConfirmSignupRequest
	if err := c.Bind(&req); err != nil {
		return p.renderError(c, apierror.MalformedBodyError)
	}

	if apierr := p.AuthService.ConfirmSignup(c.Request().Context(), &req); apierr != nil {
		page := p.page(c, "Confirm email")
		page.Values["email"] = req.Email
		return c.Render(apierr.Code(), view.PageConfirm, page.WithError(apierr))
	}
	return c.Redirect(http.StatusSeeOther, "/signin?confirmed=1&email="+url.QueryEscape(req.Email))
}

func (p *DefaultPageRoute) ResendConfirmation(c echo.Context) error {
	var req contract.ResendConfirmRequest
	if err := c.Bind(&req); err != nil {
		return p.renderError(c, apierror.MalformedBodyError)
	}

	page := p.page(c, "Confirm email")
	page.Values["email"] = req.Email
	if apierr := p.AuthService.ResendConfirmation(c.Request().Context(), &req); apierr != nil {
		return c.Render(apierr.Code(), view.PageConfirm, page.WithError(apierr))
	}

	page.Info = "A new code is on its way."
	return c.Render(http.StatusOK, view.PageConfirm, page)
}

// Home renders the note list of the session, fetching it first when it was
// never loaded, when asked to, or when its signed URLs are about to expire.
func (p *DefaultPageRoute) Home(c echo.Context) error {
	sess, ok := session.FromContext(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	board := sess.Board
	if c.QueryParam("refresh") == "1" || board.Stale(p.URLTTL/2) {
		if apierr := board.Refresh(c.Request().Context()); apierr != nil {
			return p.renderError(c, apierr)
		}
	}
	return c.Render(http.StatusOK, view.PageNotes, p.notesPage(c, sess))
}

func (p *DefaultPageRoute) CreateNote(c echo.Context) error {
	sess, ok := session.FromContext(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	req, apierr := bindCreateNote(c)
	if apierr != nil {
		return p.renderError(c, apierr)
	}

	apierr = sess.Board.Create(c.Request().Context(), req)
	if apierr == nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if apierr.Code() >= http.StatusInternalServerError {
		return p.renderError(c, apierr)
	}

	// Client side problems go back on the form, input kept
	page := p.notesPage(c, sess)
	page.Values["name"] = req.Name
	page.Values["description"] = req.Description
	if apierr.Code() == http.StatusRequestEntityTooLarge || apierr == apierror.MissingFileNameError {
		page.Problems["image"] = apierror.Message(apierr)
		return c.Render(apierr.Code(), view.PageNotes, page)
	}
	return c.Render(apierr.Code(), view.PageNotes, page.WithError(apierr))
}

func (p *DefaultPageRoute) DeleteNote(c echo.Context) error {
	sess, ok := session.FromContext(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/signin")
	}

	if apierr := sess.Board.Delete(c.Request().Context(), c.Param("id")); apierr != nil {
		return p.renderError(c, apierr)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (p *DefaultPageRoute) SignOut(c echo.Context) error {
	sess, ok := session.FromContext(c)
	if ok {
		_ = p.AuthService.SignOut(c.Request().Context(), &contract.SignOutRequest{AccessToken: sess.AccessToken})
		p.Sessions.Delete(sess.ID)
		if p.Connections != nil {
			p.Connections.CloseUserConnections(c.Request().Context(), sess.User.ID)
		}
	}

	session.ClearCookie(c, p.SecureCookie)
	return c.Redirect(http.StatusSeeOther, "/signin")
}

func (p *DefaultPageRoute) page(c echo.Context, title string) *view.Page {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return &view.Page{
		Title:    title,
		CSRF:     token,
		Values:   map[string]string{},
		Problems: map[string]string{},
	}
}

func (p *DefaultPageRoute) notesPage(c echo.Context, sess *session.Session) *view.Page {
	page := p.page(c, "")
	page.Username = sess.User.Username
	page.Notes = sess.Board.Notes()
	return page
}

func (p *DefaultPageRoute) renderError(c echo.Context, apierr apierror.ErrorResponse) error {
	page := p.page(c, "Error")
	return c.Render(apierr.Code(), view.PageError, page.WithError(apierr))
}
