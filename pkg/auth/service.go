package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidToken         = errors.New("invalid unlock token")
)

// Session is an issued unlock.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService defines the interface for PIN gating.
type AuthService interface {
	// GatingEnabled reports whether a PIN is configured. Without one every
	// request is treated as unlocked.
	GatingEnabled() bool

	// Unlock checks pin, issues a token and stores it in the session cookie.
	// Returns apperrors.ErrInvalidPIN on mismatch and
	// apperrors.ErrFeatureDisabled when no PIN is configured.
	Unlock(w http.ResponseWriter, r *http.Request, pin string) (*Session, error)

	// Lock clears the session cookie.
	Lock(w http.ResponseWriter, r *http.Request) error

	// ValidateRequest extracts and validates an unlock token from the request.
	// It checks for the token in:
	//   1. The tracker session cookie (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)

	// ValidateToken parses and verifies a raw token.
	ValidateToken(token string) (*Claims, error)
}

// authService implements AuthService.
type authService struct {
	pin      []byte
	secret   []byte
	ttl      time.Duration
	sessions *SessionManager
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. An empty pin disables gating.
func NewAuthService(pin, secret string, ttl time.Duration, sessions *SessionManager, logger *zap.Logger) AuthService {
	return &authService{
		pin:      []byte(pin),
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
		now:      time.Now,
		logger:   logger.Named("auth"),
	}
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)

func (s *authService) GatingEnabled() bool {
	return len(s.pin) > 0
}

func (s *authService) Unlock(w http.ResponseWriter, r *http.Request, pin string) (*Session, error) {
	if !s.GatingEnabled() {
		return nil, apperrors.ErrFeatureDisabled
	}
	if subtle.ConstantTimeCompare([]byte(pin), s.pin) != 1 {
		return nil, apperrors.ErrInvalidPIN
	}

	session, err := s.issue()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(w, r, session.Token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func (s *authService) Lock(w http.ResponseWriter, r *http.Request) error {
	return s.sessions.Clear(w, r)
}

func (s *authService) issue() (*Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign unlock token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires}, nil
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	var tokenString string
	var tokenSource string

	// Try the session cookie first (browser clients)
	if token, ok := s.sessions.Token(r); ok {
		tokenString = token
		tokenSource = "cookie"
	} else {
		// Fallback to Authorization header (API clients)
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No unlock token found in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return nil, "", ErrMissingAuthorization
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return nil, "", ErrInvalidAuthFormat
		}
		tokenString = parts[1]
		tokenSource = "header"
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("Unlock token validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	return claims, tokenString, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(Subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
