package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/use-agent/pagemap/models"
)

const (
	fallbackMessage    = "Static scraping insufficient, using JS rendering"
	unavailableMessage = "JS rendering recommended but the render engine is not available in this deployment"
)

// Dispatcher is the strategy selector. It picks between the static and
// the render pass, retries once with rendering when the static result is
// thin, and merges the two.
//
// A nil render pass means the deployment has no browser.
type Dispatcher struct {
	static        Pass
	render        Pass
	renderDomains []string
	now           func() time.Time
}

// NewDispatcher creates a Dispatcher. render may be nil.
func NewDispatcher(static, render Pass, renderDomains []string) *Dispatcher {
	return &Dispatcher{
		static:        static,
		render:        render,
		renderDomains: renderDomains,
		now:           time.Now,
	}
}

// RenderAvailable reports whether the render pass can be used.
func (d *Dispatcher) RenderAvailable() bool { return d.render != nil }

// Scrape runs the scrape for req.URL. It never fails: every problem,
// including a panic, ends up in the result's Errors.
func (d *Dispatcher) Scrape(ctx context.Context, req *Request) (res *models.ScrapeResult) {
	start := time.Now()
	res = models.NewScrapeResult(req.URL, d.now().UTC(), models.StrategyStatic)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("scrape panicked", "url", req.URL, "panic", r, "stack", string(debug.Stack()))
			res.AddError(models.PhaseScrape, fmt.Sprint(r))
		}
		normalize(res)
		slog.Info("scrape complete",
			"url", req.URL,
			"strategy", res.Meta.Strategy,
			"sections", len(res.Sections),
			"errors", len(res.Errors),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	// ── 1. Forced rendering ─────────────────────────────────────────
	if d.render != nil && matchesDomain(hostOf(req.URL), d.renderDomains) {
		slog.Debug("forced render domain", "url", req.URL)
		adopt(res, d.render.Run(ctx, req))
		res.Meta.Strategy = models.StrategyJS
		return res
	}

	// ── 2. Static pass ──────────────────────────────────────────────
	adopt(res, d.static.Run(ctx, req))
	if !needsRendering(res) {
		return res
	}

	// ── 3. Render fallback ──────────────────────────────────────────
	if d.render == nil {
		res.AddError(models.PhaseRenderCheck, unavailableMessage)
		return res
	}
	res.AddError(models.PhaseFallbackDecision, fallbackMessage)
	merge(res, d.render.Run(ctx, req))
	return res
}

// normalize restores defaults a pass may have left empty.
func normalize(res *models.ScrapeResult) {
	if res.Sections == nil {
		res.Sections = []models.Section{}
	}
	if res.Errors == nil {
		res.Errors = []models.ScrapeError{}
	}
	if len(res.Interactions.Pages) == 0 || res.Interactions.Pages[0] != res.URL {
		res.Interactions.Pages = append([]string{res.URL}, res.Interactions.Pages...)
	}
	if res.Interactions.Clicks == nil {
		res.Interactions.Clicks = []string{}
	}
	if res.Meta.Language == "" {
		res.Meta.Language = models.DefaultLanguage
	}
	if res.Meta.Strategy == "" {
		res.Meta.Strategy = models.StrategyStatic
	}
}
