package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/http/session"
	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageFixture struct {
	e     *echo.Echo
	notes *stubNoteService
	auth  *stubAuthService
	conns *stubConnections
	store *session.Store
	route *DefaultPageRoute
}

func newPageFixture(t *testing.T) *pageFixture {
	f := &pageFixture{
		e:     newTestEcho(t),
		notes: &stubNoteService{},
		auth:  &stubAuthService{},
		conns: &stubConnections{},
		store: session.NewStore(time.Hour),
	}
	f.route = NewPageDefault(f.auth, f.notes, f.store, f.conns, 15*time.Minute, false)
	return f
}

// signedIn returns a context carrying a fresh session, as the session
// middleware would leave it.
func (f *pageFixture) signedIn(req *http.Request, rec *httptest.ResponseRecorder) (echo.Context, *session.Session) {
	board := service.NewNoteBoard(f.notes, testActor)
	sess := f.store.Create(testActor, "access", "id", time.Time{}, board)
	c := f.e.NewContext(req, rec)
	c.Set(session.ContextKey, sess)
	return withUser(c), sess
}

func formRequest(target string, values url.Values) *http.Request {
	return newRequest(http.MethodPost, target, strings.NewReader(values.Encode()), echo.MIMEApplicationForm)
}

func TestHomeLoadsListOnFirstRender(t *testing.T) {
	f := newPageFixture(t)
	f.notes.notes = []*contract.NoteResponse{{ID: "1", Name: "A", Description: "d"}}

	rec := httptest.NewRecorder()
	c, _ := f.signedIn(newRequest(http.MethodGet, "/", nil, ""), rec)

	require.NoError(t, f.route.Home(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h3>A</h3>")
	assert.NotContains(t, rec.Body.String(), "<img")
	assert.Equal(t, 1, f.notes.lists)
}

func TestHomeReusesFreshList(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	c, sess := f.signedIn(newRequest(http.MethodGet, "/", nil, ""), rec)
	require.Nil(t, sess.Board.Refresh(c.Request().Context()))

	require.NoError(t, f.route.Home(c))
	assert.Equal(t, 1, f.notes.lists)

	rec = httptest.NewRecorder()
	c = f.e.NewContext(newRequest(http.MethodGet, "/?refresh=1", nil, ""), rec)
	c.Set(session.ContextKey, sess)
	require.NoError(t, f.route.Home(c))
	assert.Equal(t, 2, f.notes.lists)
}

func TestHomeRendersListFailure(t *testing.T) {
	f := newPageFixture(t)
	f.notes.listErr = apierror.InternalServerError

	rec := httptest.NewRecorder()
	c, _ := f.signedIn(newRequest(http.MethodGet, "/", nil, ""), rec)

	require.NoError(t, f.route.Home(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestCreateNotePageRefetchesAndRedirects(t *testing.T) {
	f := newPageFixture(t)
	body, contentType := multipartBody(t, map[string]string{"name": "Trip", "description": "Beach"}, "beach.jpg", []byte("jpeg"))

	rec := httptest.NewRecorder()
	c, sess := f.signedIn(newRequest(http.MethodPost, "/notes", body, contentType), rec)

	require.NoError(t, f.route.CreateNote(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, f.notes.lists)

	notes := sess.Board.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "media/abc/beach.jpg", notes[0].Image)
}

func TestCreateNotePageKeepsInputOnValidationError(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	c, _ := f.signedIn(formRequest("/notes", url.Values{"name": {"Trip"}}), rec)

	require.NoError(t, f.route.CreateNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Trip"`)
	assert.Contains(t, rec.Body.String(), "This field is required")
	assert.Empty(t, f.notes.created)
}

func TestDeleteNotePageRemovesLocally(t *testing.T) {
	f := newPageFixture(t)
	f.notes.notes = []*contract.NoteResponse{{ID: "1"}, {ID: "2"}}

	rec := httptest.NewRecorder()
	c, sess := f.signedIn(formRequest("/notes/1/delete", url.Values{}), rec)
	require.Nil(t, sess.Board.Refresh(c.Request().Context()))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.route.DeleteNote(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, f.notes.lists)

	notes := sess.Board.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "2", notes[0].ID)
}

func TestSignInPageCreatesSession(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(formRequest("/signin", url.Values{"email": {"ana@example.com"}, "password": {"Secret#123"}}), rec)

	require.NoError(t, f.route.SignIn(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, f.store.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)

	sess, ok := f.store.Get(cookies[0].Value)
	require.True(t, ok)
	assert.Equal(t, "access", sess.AccessToken)
	assert.False(t, sess.Board.Loaded())
}

func TestSignInPageRendersErrors(t *testing.T) {
	f := newPageFixture(t)
	f.auth.signInErr = apierror.IDPCredentialsMismatchError

	rec := httptest.NewRecorder()
	c := f.e.NewContext(formRequest("/signin", url.Values{"email": {"ana@example.com"}, "password": {"wrong"}}), rec)

	require.NoError(t, f.route.SignIn(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credentials mismatch")
	assert.Contains(t, rec.Body.String(), `value="ana@example.com"`)
	assert.Equal(t, 0, f.store.Len())
}

func TestSignInPageSendsUnconfirmedUsersToConfirm(t *testing.T) {
	f := newPageFixture(t)
	f.auth.signInErr = apierror.IDPUserNotConfirmedError

	rec := httptest.NewRecorder()
	c := f.e.NewContext(formRequest("/signin", url.Values{"email": {"ana@example.com"}, "password": {"Secret#123"}}), rec)

	require.NoError(t, f.route.SignIn(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/confirm?email=ana%40example.com", rec.Header().Get(echo.HeaderLocation))
}

func TestSignUpPageRedirectsToConfirm(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	values := url.Values{"username": {"ana"}, "email": {"ana@example.com"}, "password": {"Secret#123"}}
	c := f.e.NewContext(formRequest("/signup", values), rec)

	require.NoError(t, f.route.SignUp(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/confirm?email=ana%40example.com", rec.Header().Get(echo.HeaderLocation))
}

func TestConfirmPageRedirectsToSignIn(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(formRequest("/confirm", url.Values{"email": {"ana@example.com"}, "code": {"123456"}}), rec)

	require.NoError(t, f.route.Confirm(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "/signin?confirmed=1")
}

func TestSignOutPageEndsSession(t *testing.T) {
	f := newPageFixture(t)
	rec := httptest.NewRecorder()
	c, sess := f.signedIn(formRequest("/signout", url.Values{}), rec)

	require.NoError(t, f.route.SignOut(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []string{"access"}, f.auth.signedOut)
	assert.Equal(t, []int64{testActor.ID}, f.conns.closed)

	_, ok := f.store.Get(sess.ID)
	assert.False(t, ok)
}
