package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/extractor"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
)

var settleDelay = delay{500 * time.Millisecond, 1500 * time.Millisecond}

// Renderer runs the render pass: one isolated session per call.
type Renderer struct {
	launcher  Launcher
	extractor *extractor.Extractor
	catalog   *config.Catalog
	cfg       config.ScraperConfig
	pacer     jitter.Pacer
}

// NewRenderer creates a Renderer.
func NewRenderer(launcher Launcher, ext *extractor.Extractor, catalog *config.Catalog, cfg config.ScraperConfig, pacer jitter.Pacer) *Renderer {
	return &Renderer{
		launcher:  launcher,
		extractor: ext,
		catalog:   catalog,
		cfg:       cfg,
		pacer:     pacer,
	}
}

// Render scrapes rawURL in a browser. It never fails: a fatal problem
// ends the pass early and is recorded in the result's Errors.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Open session        – fresh incognito context, closed on every path
//  2. Navigate            – document parsed, then network idle (best effort)
//  3. Settle + body wait  – human-like pause, then the body element
//  4. Noise filter        – cookie/consent/modal removal
//  5. Interactions        – tabs → load-more → scroll → pagination
//  6. Extract             – final DOM through the content extractor
func (r *Renderer) Render(ctx context.Context, rawURL string, opts extractor.Options) *models.ScrapeResult {
	res := models.NewScrapeResult(rawURL, time.Now().UTC(), models.StrategyJS)
	start := time.Now()

	// ── 1. Open session ─────────────────────────────────────────────
	session, err := r.launcher.Open(ctx)
	if err != nil {
		recordRenderError(res, err, "failed to open render session")
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("render session close failed", "url", rawURL, "error", err)
		}
	}()

	// ── 2. Navigate ─────────────────────────────────────────────────
	if err := session.Navigate(rawURL, r.cfg.NavigationTimeout); err != nil {
		recordRenderError(res, err, "navigation to target URL failed")
		return res
	}
	if err := session.WaitIdle(r.cfg.IdleTimeout); err != nil {
		slog.Debug("network did not settle, using current DOM", "url", rawURL, "error", err)
	}

	// ── 3. Settle + body wait ───────────────────────────────────────
	if err := r.pacer.Pause(ctx, settleDelay.min, settleDelay.max); err != nil {
		recordRenderError(res, err, "render canceled")
		return res
	}
	if err := session.WaitBody(r.cfg.BodyTimeout); err != nil {
		recordRenderError(res, err, "waiting for body element failed")
		return res
	}

	// ── 4. Noise filter ─────────────────────────────────────────────
	removeNoise(session, r.catalog.Noise)

	// ── 5. Interactions ─────────────────────────────────────────────
	it := &interactions{
		session: session,
		pacer:   r.pacer,
		cfg:     r.cfg,
		catalog: r.catalog,
		res:     res,
	}
	it.revealTabs(ctx)
	it.loadMore(ctx)
	it.scroll(ctx)
	it.paginate(ctx, rawURL)

	// ── 6. Extract ──────────────────────────────────────────────────
	markup, err := session.HTML()
	if err != nil {
		recordRenderError(res, err, "failed to read page HTML")
		return res
	}
	meta, sections, err := r.extractor.Extract(markup, rawURL, opts)
	if err != nil {
		recordRenderError(res, err, "extraction failed")
		return res
	}
	meta.Strategy = models.StrategyJS
	res.Meta = meta
	res.Sections = sections

	slog.Info("render pass complete",
		"url", rawURL,
		"sections", len(sections),
		"clicks", len(res.Interactions.Clicks),
		"scrolls", res.Interactions.Scrolls,
		"pages", len(res.Interactions.Pages),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}
