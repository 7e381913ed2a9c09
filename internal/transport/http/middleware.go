package httpt

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"orderflow/pkg/logger"
	"orderflow/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

func (h *OrderHandler) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := h.log.GenerateRequestID()
		ctx := h.log.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (h *OrderHandler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		path := c.Request.URL.Path

		h.log.LogAttrs(c.Request.Context(), logger.InfoLevel, "HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", statusCode),
			logger.String("duration", latency.String()),
			logger.String("client_ip", c.ClientIP()),
			logger.String("user_agent", c.Request.UserAgent()),
		)

		h.metrics.Request(method, path, statusCode, latency)

		if latency > 200*time.Millisecond {
			h.metrics.SlowRequest(method, path, statusCode, latency)
		}
	}
}

// securityHeadersMiddleware stamps every response, error paths included.
// The CORS block echoes the caller origin so cookie-authenticated storefront
// requests work across subdomains.
func (h *OrderHandler) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")

		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Vary", "Origin")
		}

		c.Next()
	}
}

func (h *OrderHandler) rateLimitMiddleware(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := h.limiter.Admit(clientAddress(c.Request), c.FullPath(), class)

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Success:    false,
				Error:      "Too many requests. Please try again later.",
				RetryAfter: decision.RetryAfter,
			})
			return
		}

		c.Next()
	}
}

// clientAddress resolves the caller behind proxies: first hop of
// X-Forwarded-For, then X-Real-IP, then CF-Connecting-IP. An unresolvable
// caller shares the "unknown" bucket rather than bypassing the limiter.
func clientAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	if addr := strings.TrimSpace(r.Header.Get("X-Real-IP")); addr != "" {
		return addr
	}
	if addr := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); addr != "" {
		return addr
	}
	return "unknown"
}
