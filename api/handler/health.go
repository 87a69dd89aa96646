package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// StatsFunc reports render session usage. It is nil when no browser runs.
type StatsFunc func() models.SessionStats

// Health returns a handler for GET /api/v1/health.
//
// Reports session utilisation and degrades status when rendering is
// unavailable or more than 80% of sessions are in use.
func Health(sc Scraper, stats StatsFunc, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s models.SessionStats
		if stats != nil {
			s = stats()
		}

		status := "healthy"
		if !sc.RenderAvailable() ||
			(s.MaxSessions > 0 && s.ActiveSessions > int(float64(s.MaxSessions)*0.8)) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			Render:       sc.RenderAvailable(),
			SessionStats: s,
			Version:      Version,
		})
	}
}

// Liveness returns a handler for GET /healthz.
func Liveness() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
