package mcpauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
)

type fakeAuthService struct {
	auth.AuthService
	gating bool
	claims *auth.Claims
	err    error
}

func (f *fakeAuthService) GatingEnabled() bool { return f.gating }
func (f *fakeAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.claims, "tok", nil
}

func serveMCP(svc auth.AuthService, header string) (*httptest.ResponseRecorder, bool, bool) {
	called, unlocked := false, false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, unlocked = auth.GetClaims(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	NewMiddleware(svc, zap.NewNop()).Authenticate(next).ServeHTTP(rec, req)
	return rec, called, unlocked
}

func TestAuthenticate_GatingOff(t *testing.T) {
	_, called, unlocked := serveMCP(&fakeAuthService{}, "Bearer whatever")
	assert.True(t, called)
	assert.False(t, unlocked)
}

func TestAuthenticate_NoTokenPassesThroughLocked(t *testing.T) {
	_, called, unlocked := serveMCP(&fakeAuthService{gating: true}, "")
	assert.True(t, called)
	assert.False(t, unlocked)
}

func TestAuthenticate_ValidTokenUnlocks(t *testing.T) {
	_, called, unlocked := serveMCP(&fakeAuthService{gating: true, claims: &auth.Claims{}}, "Bearer good")
	assert.True(t, called)
	assert.True(t, unlocked)
}

func TestAuthenticate_InvalidTokenRejected(t *testing.T) {
	rec, called, _ := serveMCP(&fakeAuthService{gating: true, err: auth.ErrInvalidToken}, "Bearer stale")

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}
