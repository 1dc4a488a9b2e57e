package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Minerva_AI/backend/go/pkg/ratelimiter"
)

// RateLimit rejects requests with 429 once the limiter is exhausted. The
// limiter is shared across all routes, bounding total load on the
// embedding and rerank providers behind the API.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
