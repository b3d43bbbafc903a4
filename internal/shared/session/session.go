// Package session carries the caller's identity explicitly through request handling.
//
// Handlers and services receive a *Session (nil for anonymous callers) instead of
// reading any process-wide "current user".
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelhub/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	ginKey = "session"
)

type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the session stored on ctx, or nil for an anonymous caller.
func From(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Require fails with ErrAuthRequired for anonymous callers.
func Require(s *Session) (*Session, error) {
	if s == nil || s.UserID == uuid.Nil {
		return nil, apperrors.ErrAuthRequired
	}
	return s, nil
}

// Attach stores s on both the gin context and the request context.
func Attach(c *gin.Context, s *Session) {
	c.Set(ginKey, s)
	c.Set("user_id", s.UserID.String())
	c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
}

func FromGin(c *gin.Context) *Session {
	if v, ok := c.Get(ginKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return From(c.Request.Context())
}

// Claims are the JWT claims issued at sign-in.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// ParseToken verifies an HMAC-signed token and checks its type claim.
func ParseToken(secret, tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromClaims builds a session from verified access-token claims.
func FromClaims(c *Claims) (*Session, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	s := &Session{UserID: id, Email: c.Email, Role: c.Role}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}
