package main

import (
	"context"
	"log/slog"

	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/engine"
	"github.com/use-agent/pagemap/extractor"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
	"github.com/use-agent/pagemap/scraper"
)

// stack is everything a scrape needs. browser is nil when rendering is
// disabled or the browser failed to launch.
type stack struct {
	dispatcher *engine.Dispatcher
	browser    *scraper.Browser
}

func (s *stack) close() {
	if s.browser != nil {
		s.browser.Close()
	}
}

// stats is nil without a browser so the health endpoint reports zero sessions.
func (s *stack) stats() func() models.SessionStats {
	if s.browser == nil {
		return nil
	}
	return s.browser.Stats
}

// build wires the static pass and, when possible, the render pass into a
// Dispatcher.
//
//  1. Catalog (compiled-in or PAGEMAP_CATALOG)
//  2. Static pass: HTTPEngine → Extractor
//  3. Render pass: Browser → Renderer → RodEngine callback
//  4. Dispatcher
func build(cfg *config.Config, render bool) (*stack, error) {
	// ── 1. Catalog ──────────────────────────────────────────────────
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	pacer := jitter.New()
	ext := extractor.New(cfg.Extract)

	// ── 2. Static pass ──────────────────────────────────────────────
	fetcher := engine.NewHTTPEngine(cfg.Scraper.FetchTimeout, cfg.Browser.DefaultProxy, catalog.UserAgents, pacer)
	static := engine.NewStaticPass(fetcher, ext)

	// ── 3. Render pass ──────────────────────────────────────────────
	s := &stack{}
	var renderPass engine.Pass
	if render && cfg.Browser.Enabled {
		b, err := scraper.NewBrowser(cfg.Browser, cfg.Scraper, catalog.UserAgents, pacer)
		if err != nil {
			// Degrade to static-only; the dispatcher records playwright_check.
			slog.Warn("render engine unavailable", "error", err)
		} else {
			s.browser = b
			renderer := scraper.NewRenderer(b, ext, catalog, cfg.Scraper, pacer)

			// This closure avoids a circular import (engine/ never imports scraper/).
			renderPass = engine.NewRodEngine(func(ctx context.Context, req *engine.Request) *models.ScrapeResult {
				return renderer.Render(ctx, req.URL, extractor.Options{Markdown: req.Markdown})
			})
		}
	}

	// ── 4. Dispatcher ───────────────────────────────────────────────
	s.dispatcher = engine.NewDispatcher(static, renderPass, catalog.RenderDomains)
	slog.Info("dispatcher ready",
		"render", s.dispatcher.RenderAvailable(),
		"renderDomains", len(catalog.RenderDomains),
	)
	return s, nil
}
