package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"Minerva_AI/backend/go/internal/config"
	"Minerva_AI/backend/go/pkg/ratelimiter"
)

// SetupRouter configures and returns the Gin engine.
func SetupRouter(h *Handler, mw config.MiddlewareConfig) (*gin.Engine, error) {
	r := gin.Default()

	if mw.RateLimiter.Enabled {
		limiter, err := ratelimiter.New(mw.RateLimiter.Algorithm, mw.RateLimiter.Rate, mw.RateLimiter.Capacity)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		r.Use(RateLimit(limiter))
	}

	r.GET("/healthz", h.Health)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/search", h.Search)
		apiV1.POST("/index", h.Index)
		apiV1.DELETE("/documents/:collection", h.DeleteDocument)
	}

	return r, nil
}
