package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/api/handler"
	"github.com/use-agent/pagemap/api/middleware"
	"github.com/use-agent/pagemap/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  RequestID → Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoints sit outside auth.
// stats may be nil when no browser is running.
func NewRouter(sc handler.Scraper, stats handler.StatsFunc, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(gin.Logger())

	r.GET("/healthz", handler.Liveness())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(sc, stats, startTime))

	var guards []gin.HandlerFunc
	if cfg.Auth.Enabled {
		guards = append(guards, middleware.Auth(cfg.Auth.APIKeys))
	}
	guards = append(guards, middleware.RateLimit(cfg.RateLimit))

	protected := v1.Group("", guards...)
	protected.POST("/scrape", handler.Scrape(sc))
	protected.POST("/batch/scrape", handler.PostBatch(sc, cfg.Batch))

	// Unversioned alias.
	r.POST("/scrape", append(guards, handler.Scrape(sc))...)

	return r
}
