package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/engine"
	"github.com/use-agent/pagemap/models"
	"golang.org/x/sync/errgroup"
)

// PostBatch returns a handler for POST /api/v1/batch/scrape.
// It scrapes every URL synchronously, at most cfg.Concurrency at a time,
// and returns the results in request order.
func PostBatch(sc Scraper, cfg config.BatchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBatchInvalid(c, err.Error())
			return
		}
		if len(req.URLs) > cfg.MaxURLs {
			respondBatchInvalid(c, fmt.Sprintf("maximum %d URLs per batch", cfg.MaxURLs))
			return
		}
		for _, u := range req.URLs {
			if err := models.ValidateTargetURL(u); err != nil {
				respondBatchInvalid(c, err.Error())
				return
			}
		}

		results := make([]*models.ScrapeResult, len(req.URLs))
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.SetLimit(max(cfg.Concurrency, 1))
		for i, u := range req.URLs {
			g.Go(func() error {
				results[i] = sc.Scrape(ctx, &engine.Request{URL: u, Markdown: req.Markdown})
				return nil
			})
		}
		_ = g.Wait() // scrapes never fail

		elapsed := time.Since(totalStart).Milliseconds()
		slog.Info("batch served",
			"request_id", c.GetString(requestIDKey),
			"total", len(results),
			"duration_ms", elapsed,
		)
		c.JSON(http.StatusOK, models.BatchResponse{
			Total:   len(results),
			Results: results,
			Timing:  models.TimingInfo{TotalMs: elapsed},
		})
	}
}

func respondBatchInvalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.BatchResponse{
		Results: []*models.ScrapeResult{},
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}
