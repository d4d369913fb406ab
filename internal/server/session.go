package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "rm_session"

	sessionIssuer     = "resume-matcher"
	defaultSessionTTL = 24 * time.Hour
	minSecretLength   = 16
)

// Sessions issues and validates HS256 session tokens whose subject is the
// session id.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for id.
func (s *Sessions) Issue(id uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Parse validates token and returns the session id.
func (s *Sessions) Parse(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errors.New("session token is empty")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session subject: %w", err)
	}
	return id, nil
}

// Cookie wraps token into the session cookie.
func (s *Sessions) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type sessionKey struct{}

// SessionFrom returns the session id stored by the session middleware.
func SessionFrom(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}

// withSession reuses the session of a valid cookie, or starts a new one.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id uuid.UUID
		if c, err := r.Cookie(SessionCookie); err == nil {
			id, err = s.sessions.Parse(c.Value)
			if err != nil {
				s.logger.Debug("session cookie rejected", zap.Error(err))
			}
		}

		if id == uuid.Nil {
			id = uuid.New()
			token, err := s.sessions.Issue(id)
			if err != nil {
				s.logger.Error("issue session", zap.Error(err))
				errorResponse(w, http.StatusInternalServerError, "internal server error")
				return
			}
			http.SetCookie(w, s.sessions.Cookie(token, r.TLS != nil))
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id.String())))
	})
}
