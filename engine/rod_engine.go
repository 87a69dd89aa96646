package engine

import (
	"context"
	"time"

	"github.com/use-agent/pagemap/models"
)

// RenderFunc is the callback that runs the browser render pass.
// It is injected from main.go to avoid a circular import (engine/ -> scraper/).
type RenderFunc func(ctx context.Context, req *Request) *models.ScrapeResult

// RodEngine is the render pass. It delegates to the rod-based scraper via
// a callback function.
type RodEngine struct {
	render RenderFunc
}

// NewRodEngine creates a RodEngine.
func NewRodEngine(render RenderFunc) *RodEngine {
	return &RodEngine{render: render}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Run(ctx context.Context, req *Request) *models.ScrapeResult {
	if e.render == nil {
		res := models.NewScrapeResult(req.URL, time.Now().UTC(), models.StrategyJS)
		err := models.NewEngineError(models.ErrCodeUnavailable, e.Name()+": render function not configured", nil)
		res.AddError(models.PhaseRenderCheck, err.Error())
		return res
	}
	res := e.render(ctx, req)
	res.Meta.Strategy = models.StrategyJS
	return res
}
