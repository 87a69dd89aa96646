package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagemap/config"
	"github.com/ysmood/gson"
)

// initScript hides the most common automation tells. It runs before any
// page script on every new document.
const initScript = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => false });
	window.chrome = window.chrome || {};
	window.chrome.runtime = {};
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
})()`

type sessionOptions struct {
	browser      config.BrowserConfig
	userAgent    string
	blockedTypes []string
	blockAds     bool
}

// rodSession implements Session over an incognito browser context.
type rodSession struct {
	context *rod.Browser
	raw     *rod.Page // not bound to the request context, used for cleanup
	page    *rod.Page
	router  *rod.HijackRouter
	network *netTracker
	stop    context.CancelFunc

	closeOnce sync.Once
	release   func()
}

func openRodSession(ctx context.Context, browser *rod.Browser, opts sessionOptions) (*rodSession, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, categorizeError(err, "failed to create browser context")
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, categorizeError(err, "failed to open page")
	}

	s := &rodSession{context: incognito, raw: page}
	if err := s.configure(opts); err != nil {
		s.Close()
		return nil, categorizeError(err, "failed to configure session")
	}
	s.router = setupHijack(page, opts.blockedTypes, opts.blockAds)

	trackCtx, stop := context.WithCancel(ctx)
	s.network, s.stop = newNetTracker(), stop
	if err := s.network.follow(trackCtx, page); err != nil {
		s.Close()
		return nil, categorizeError(err, "failed to enable network tracking")
	}
	s.page = page.Context(ctx)
	return s, nil
}

// configure applies emulation, anti-detection scripts and extra headers.
// Everything here must happen before the first navigation.
func (s *rodSession) configure(opts sessionOptions) error {
	cfg := opts.browser
	if err := s.raw.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	if err := s.raw.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      opts.userAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		return fmt.Errorf("user agent: %w", err)
	}

	// Best-effort: older browsers lack some of these overrides.
	if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(s.raw); err != nil {
		slog.Debug("locale override failed", "error", err)
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}).Call(s.raw); err != nil {
		slog.Debug("timezone override failed", "error", err)
	}
	accuracy := 100.0
	if err := (proto.BrowserGrantPermissions{
		Permissions:      []proto.BrowserPermissionType{proto.BrowserPermissionTypeGeolocation},
		BrowserContextID: s.context.BrowserContextID,
	}).Call(s.context); err != nil {
		slog.Debug("geolocation permission failed", "error", err)
	}
	if err := (proto.EmulationSetGeolocationOverride{
		Latitude:  &cfg.Latitude,
		Longitude: &cfg.Longitude,
		Accuracy:  &accuracy,
	}).Call(s.raw); err != nil {
		slog.Debug("geolocation override failed", "error", err)
	}

	if _, err := s.raw.EvalOnNewDocument(stealth.JS); err != nil {
		return fmt.Errorf("stealth script: %w", err)
	}
	if _, err := s.raw.EvalOnNewDocument(initScript); err != nil {
		return fmt.Errorf("init script: %w", err)
	}

	return proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
			"DNT":             "1",
			"Referer":         "https://www.google.com/",
		}),
	}.Call(s.raw)
}

// Navigate returns once the document has been parsed. Waiting for the
// network to settle is left to WaitIdle.
func (s *rodSession) Navigate(url string, timeout time.Duration) error {
	p := s.page.Timeout(timeout)
	defer p.CancelTimeout()

	// The lifecycle listener must be registered before Navigate.
	parsed := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return err
	}
	parsed()
	return p.GetContext().Err()
}

func (s *rodSession) WaitBody(timeout time.Duration) error {
	p := s.page.Timeout(timeout)
	defer p.CancelTimeout()
	_, err := p.Element("body")
	return err
}

func (s *rodSession) Elements(css string) ([]Element, error) {
	found, err := s.page.Elements(css)
	if err != nil {
		return nil, err
	}
	els := make([]Element, len(found))
	for i, el := range found {
		els[i] = rodElement{el: el}
	}
	return els, nil
}

func (s *rodSession) Eval(js string, args ...any) (gson.JSON, error) {
	res, err := s.page.Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (s *rodSession) WaitIdle(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.page.GetContext(), timeout)
	defer cancel()
	return s.network.wait(ctx, idleQuiet)
}

func (s *rodSession) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (s *rodSession) HTML() (string, error) {
	return s.page.HTML()
}

// Close tears down in reverse order using handles that are not bound to
// the request context, so cleanup still runs after a timeout.
func (s *rodSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		if s.router != nil {
			_ = s.router.Stop()
		}
		if perr := s.raw.Close(); perr != nil {
			slog.Debug("session page close failed", "error", perr)
		}
		err = s.context.Close()
		if s.release != nil {
			s.release()
		}
	})
	return err
}

// rodElement implements Element.
type rodElement struct {
	el *rod.Element
}

func (e rodElement) Visible() (bool, error) { return e.el.Visible() }

func (e rodElement) Text() (string, error) { return e.el.Text() }

func (e rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e rodElement) ScrollIntoView() error { return e.el.ScrollIntoView() }

func (e rodElement) Click(timeout time.Duration) error {
	el := e.el.Timeout(timeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
