package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"salon-booking-backend/config"
	"salon-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.SessionHeader)

	// catalog responses only; availability changes with every hold
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/services", caching, h.GetServices)
		api.GET("/staff", caching, h.GetStaff)
		api.GET("/availability", h.GetAvailability)

		api.POST("/holds", h.CreateHold)
		api.DELETE("/holds/:id", h.ReleaseHold)
		api.POST("/holds/:id/convert", h.ConvertHold)

		api.POST("/bookings", h.CreateBooking)

		api.POST("/admin/holds/cleanup", h.CleanupHolds)
	}

	return r
}
