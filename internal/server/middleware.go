package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// orderRateLimit throttles order placement per client address. Limiter
// errors fail open; a redis outage must not block checkout.
func (s *Server) orderRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.orderLimiter.Enabled() {
			c.Next()
			return
		}

		result, err := s.orderLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many order attempts",
			}})
			return
		}
		c.Next()
	}
}
