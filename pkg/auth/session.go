package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the unlock session cookie.
const SessionName = "tracker-session"

// sessionKeyToken is the session value holding the unlock token.
const sessionKeyToken = "token"

// SessionManager keeps the unlock token in a signed cookie.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a cookie-backed session store.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive the
// 32-byte signing key. It must be stable across restarts, or every
// browser is locked again.
func NewSessionManager(secret string, ttl time.Duration, cookie CookieSettings) *SessionManager {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cookie.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	return &SessionManager{store: store}
}

// Token returns the unlock token stored in the request's session cookie.
// A missing or tampered cookie yields false.
func (m *SessionManager) Token(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	token, ok := session.Values[sessionKeyToken].(string)
	return token, ok && token != ""
}

// Save stores token in the session cookie.
func (m *SessionManager) Save(w http.ResponseWriter, r *http.Request, token string) error {
	// Get returns a fresh session alongside the error for a tampered cookie.
	session, _ := m.store.Get(r, SessionName)
	session.Values[sessionKeyToken] = token
	return session.Save(r, w)
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	delete(session.Values, sessionKeyToken)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
