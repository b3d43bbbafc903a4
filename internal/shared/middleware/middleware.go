package middleware

import (
	"context"
	"net/http"
	"strings"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/utils/response"
	"travelhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminChecker is the "is this user an admin" predicate keyed by user id.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequestID propagates X-Request-ID, minting one when the client sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// JWTAuth requires a valid bearer access token and attaches the caller's session.
func JWTAuth(cfg *config.Config, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := sessionFromHeader(c, cfg)
		if err != nil {
			log.LogAuthFailure(c.Request.Context(), err.Error(), c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, err.Error(), nil, nil)
			c.Abort()
			return
		}
		session.Attach(c, s)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and otherwise lets the request through anonymously.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if s, err := sessionFromHeader(c, cfg); err == nil {
				session.Attach(c, s)
			}
		}
		c.Next()
	}
}

// RequireAdmin consults the role store rather than the role claim in the token.
func RequireAdmin(checker AdminChecker, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := session.Require(session.FromGin(c))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		ok, err := checker.IsAdmin(c.Request.Context(), s.UserID)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if !ok {
			log.LogPermissionDenied(c.Request.Context(), s.UserID.String(), c.FullPath())
			response.AbortWithError(c, apperrors.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}

func sessionFromHeader(c *gin.Context, cfg *config.Config) (*session.Session, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errMissingHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errBadHeader
	}

	claims, err := session.ParseToken(cfg.JWT.Secret, strings.TrimSpace(parts[1]), session.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return session.FromClaims(claims)
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingHeader authError = "Authorization header is required"
	errBadHeader     authError = "Authorization header format must be Bearer {token}"
)

// Guards bundles the auth middlewares handed to each feature router.
type Guards struct {
	Auth     gin.HandlerFunc
	Optional gin.HandlerFunc
	Admin    gin.HandlerFunc
}

func NewGuards(cfg *config.Config, checker AdminChecker, log *logger.Logger) Guards {
	return Guards{
		Auth:     JWTAuth(cfg, log),
		Optional: OptionalAuth(cfg),
		Admin:    RequireAdmin(checker, log),
	}
}
