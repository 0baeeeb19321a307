package session

import (
	"net/http"
	"sync"
	"time"

	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "notes_session"

	// ContextKey is where the session middleware stores the current *Session.
	ContextKey = "session"
)

// Session is the server side state of one signed in browser.
type Session struct {
	ID          string
	User        *entity.User
	AccessToken string
	IDToken     string
	ExpiresAt   time.Time
	Board       *service.NoteBoard
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store keeps sessions in memory. They do not survive a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session for user. It expires at tokenExpiry or after
// the store TTL, whichever comes first.
func (s *Store) Create(user *entity.User, accessToken, idToken string, tokenExpiry time.Time, board *service.NoteBoard) *Session {
	expiresAt := time.Now().Add(s.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}

	sess := &Session{
		ID:          uuid.NewString(),
		User:        user,
		AccessToken: accessToken,
		IDToken:     idToken,
		ExpiresAt:   expiresAt,
		Board:       board,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the live session with the given id. Expired sessions are
// dropped on access.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if sess.Expired(time.Now()) {
		s.Delete(id)
		return nil, false
	}
	return sess, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// DeleteExpired removes every session expired at now and returns how many
// were removed.
func (s *Store) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Lookup returns the session referenced by the request cookie, if any.
func (s *Store) Lookup(c echo.Context) (*Session, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return s.Get(cookie.Value)
}

func WriteCookie(c echo.Context, sess *Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromContext returns the session placed in the context by the middleware.
func FromContext(c echo.Context) (*Session, bool) {
	sess, ok := c.Get(ContextKey).(*Session)
	return sess, ok && sess != nil
}
