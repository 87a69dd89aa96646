package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/pagemap/models"
)

// categorizeError wraps raw errors into typed EngineErrors so the render
// pass can tell timeouts from other failures.
func categorizeError(err error, msg string) *models.EngineError {
	var ee *models.EngineError
	if errors.As(err, &ee) {
		return ee
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewEngineError(models.ErrCodeRenderTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewEngineError(models.ErrCodeRender, "request canceled", err)
	default:
		return models.NewEngineError(models.ErrCodeRender, msg, err)
	}
}

// recordRenderError converts a fatal render failure into an error record:
// timeouts go to the render phase, everything else to js_scrape.
func recordRenderError(res *models.ScrapeResult, err error, msg string) {
	ee := categorizeError(err, msg)
	if ee.IsTimeout() {
		res.AddError(models.PhaseRender, fmt.Sprintf("Timeout: %s: %v", ee.Message, unwrapped(ee)))
		return
	}
	res.AddError(models.PhaseJSScrape, fmt.Sprintf("%s: %v", ee.Message, unwrapped(ee)))
}

func unwrapped(ee *models.EngineError) error {
	if ee.Err != nil {
		return ee.Err
	}
	return errors.New(ee.Code)
}
