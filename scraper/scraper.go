// Package scraper is the render driver: it runs pages in an isolated
// browser session, removes noise, performs scripted interactions and
// extracts the final DOM.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
	"golang.org/x/sync/semaphore"
)

// Browser owns the browser process and hands out isolated sessions.
// Sessions are never reused; the semaphore only bounds how many are open
// at the same time. It is safe for concurrent use.
type Browser struct {
	browser    *rod.Browser
	sem        *semaphore.Weighted
	cfg        config.BrowserConfig
	scraperCfg config.ScraperConfig
	userAgents []string
	pacer      jitter.Pacer
	active     atomic.Int32
}

// NewBrowser launches a headless browser.
func NewBrowser(cfg config.BrowserConfig, scraperCfg config.ScraperConfig, userAgents []string, pacer jitter.Pacer) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process")
	l.Set(flags.Flag("disable-web-security"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewEngineError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewEngineError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	maxSessions := cfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}
	slog.Info("render sessions bounded", "maxSessions", maxSessions)

	return &Browser{
		browser:    browser,
		sem:        semaphore.NewWeighted(int64(maxSessions)),
		cfg:        cfg,
		scraperCfg: scraperCfg,
		userAgents: userAgents,
		pacer:      pacer,
	}, nil
}

// Open waits for a free slot, then creates a fresh incognito context and
// page configured for the session.
func (b *Browser) Open(ctx context.Context) (Session, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, categorizeError(err, "waiting for a render session")
	}
	b.active.Add(1)
	release := func() {
		b.active.Add(-1)
		b.sem.Release(1)
	}

	s, err := openRodSession(ctx, b.browser, sessionOptions{
		browser:      b.cfg,
		userAgent:    b.userAgents[b.pacer.Pick(len(b.userAgents))],
		blockedTypes: b.scraperCfg.BlockedResourceTypes,
		blockAds:     b.scraperCfg.BlockAds,
	})
	if err != nil {
		release()
		return nil, err
	}
	s.release = release
	return s, nil
}

// Stats returns a snapshot of session usage.
func (b *Browser) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    b.cfg.MaxSessions,
		ActiveSessions: int(b.active.Load()),
	}
}

// Close kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("browser shutdown complete")
}
