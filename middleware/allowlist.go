package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookIPAllowlist gates the payment webhook on the caller's source address.
// This is a coarse network-layer control, not cryptographic verification; the
// STK callback carries no signature to check. An empty allowlist disables the
// gate (local development only).
func WebhookIPAllowlist(allowed []string, logger *zap.Logger) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		allowedSet[ip] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowedSet) == 0 {
			c.Next()
			return
		}

		ip := sourceIP(c)
		if _, ok := allowedSet[ip]; !ok {
			logger.Warn("webhook rejected: source not in allowlist", zap.String("ip", ip))
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// sourceIP resolves the original client address, trusting the proxy headers
// the provider's deliveries arrive behind.
func sourceIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		// First hop is the originating client.
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	return c.ClientIP()
}
