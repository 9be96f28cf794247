package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
)

const testSecret = "test-session-secret"

func newTestAuthService(pin string) *authService {
	sessions := NewSessionManager(testSecret, time.Hour, CookieSettings{})
	return NewAuthService(pin, testSecret, time.Hour, sessions, zap.NewNop()).(*authService)
}

func unlockRequest(t *testing.T, svc AuthService) (*Session, []*http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/unlock", nil)

	session, err := svc.Unlock(w, r, "2468")
	require.NoError(t, err)
	return session, w.Result().Cookies()
}

func TestAuthService_UnlockSetsCookie(t *testing.T) {
	svc := newTestAuthService("2468")

	session, cookies := unlockRequest(t, svc)
	assert.NotEmpty(t, session.Token)
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/api/vendors", nil)
	r.AddCookie(cookies[0])

	claims, token, err := svc.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, session.Token, token)
	assert.Equal(t, Subject, claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthService_UnlockWrongPIN(t *testing.T) {
	svc := newTestAuthService("2468")

	w := httptest.NewRecorder()
	_, err := svc.Unlock(w, httptest.NewRequest(http.MethodPost, "/api/unlock", nil), "1357")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPIN)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthService_UnlockWithoutGating(t *testing.T) {
	svc := newTestAuthService("")

	assert.False(t, svc.GatingEnabled())
	_, err := svc.Unlock(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/unlock", nil), "")
	assert.ErrorIs(t, err, apperrors.ErrFeatureDisabled)
}

func TestAuthService_BearerToken(t *testing.T) {
	svc := newTestAuthService("2468")
	session, _ := unlockRequest(t, svc)

	r := httptest.NewRequest(http.MethodGet, "/api/vendors", nil)
	r.Header.Set("Authorization", "Bearer "+session.Token)

	_, token, err := svc.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, session.Token, token)
}

func TestAuthService_ValidateRequestErrors(t *testing.T) {
	svc := newTestAuthService("2468")

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{name: "no token", header: "", want: ErrMissingAuthorization},
		{name: "basic scheme", header: "Basic abc", want: ErrInvalidAuthFormat},
		{name: "garbage token", header: "Bearer not-a-jwt", want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, _, err := svc.ValidateRequest(r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_ExpiredToken(t *testing.T) {
	svc := newTestAuthService("2468")
	issued := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	session, _ := unlockRequest(t, svc)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err := svc.ValidateToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsForeignSignatures(t *testing.T) {
	svc := newTestAuthService("2468")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   Subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   Subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LockClearsCookie(t *testing.T) {
	svc := newTestAuthService("2468")
	_, cookies := unlockRequest(t, svc)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/lock", nil)
	r.AddCookie(cookies[0])
	require.NoError(t, svc.Lock(w, r))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestDeriveCookieSettings(t *testing.T) {
	assert.Equal(t, CookieSettings{Secure: false}, DeriveCookieSettings("http://localhost:3443", ""))
	assert.Equal(t, CookieSettings{Secure: true}, DeriveCookieSettings("https://tracker.example.com", ""))
	assert.Equal(t, CookieSettings{Secure: true, Domain: ".example.com"}, DeriveCookieSettings("https://tracker.example.com", ".example.com"))
	assert.Equal(t, CookieSettings{Secure: true}, DeriveCookieSettings("", ""))
}
