package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"travelhub/internal/shared/utils/response"
	"travelhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware applies the limiter to every route. A redis failure lets the request through.
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limit check failed", "error", err, "ip", clientIP)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin
	case strings.Contains(path, "/auth/login"),
		strings.Contains(path, "/auth/register"),
		strings.Contains(path, "/auth/refresh"):
		return RateLimitTypeAuth
	case strings.Contains(path, "/checkout"),
		strings.Contains(path, "/payments"),
		strings.Contains(path, "/seats/hold"),
		strings.HasSuffix(path, "/cancel"):
		return RateLimitTypeCheckout
	case strings.Contains(path, "/catalog"),
		strings.Contains(path, "/inventory"),
		strings.Contains(path, "/coupons/apply"):
		return RateLimitTypePublic
	default:
		return RateLimitTypeDefault
	}
}

func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := c.GetHeader("X-Real-IP"); net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
