package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/engine"
	"github.com/use-agent/pagemap/models"
)

// Scraper runs one scrape. *engine.Dispatcher satisfies it.
type Scraper interface {
	Scrape(ctx context.Context, req *engine.Request) *models.ScrapeResult
	RenderAvailable() bool
}

// Scrape returns a handler for POST /api/v1/scrape (and POST /scrape).
//
// Orchestration flow:
//  1. Parse & validate request (http/https only).
//  2. Dispatcher.Scrape → always a fully formed result.
//  3. Fill Timing, return 200 even when every pass failed.
func Scrape(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}
		if err := models.ValidateTargetURL(req.URL); err != nil {
			respondInvalid(c, err.Error())
			return
		}

		// ── 2. Scrape ───────────────────────────────────────────────
		result := sc.Scrape(c.Request.Context(), &engine.Request{
			URL:      req.URL,
			Markdown: req.Markdown,
		})

		// ── 3. Respond ──────────────────────────────────────────────
		elapsed := time.Since(totalStart).Milliseconds()
		slog.Info("scrape served",
			"request_id", c.GetString(requestIDKey),
			"url", req.URL,
			"strategy", result.Meta.Strategy,
			"errors", len(result.Errors),
			"duration_ms", elapsed,
		)
		c.JSON(http.StatusOK, models.ScrapeResponse{
			Result: result,
			Timing: models.TimingInfo{TotalMs: elapsed},
		})
	}
}

// requestIDKey matches the key set by the request id middleware.
const requestIDKey = "request_id"

func respondInvalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ScrapeResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}
