package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
)

const (
	jsScrollHeight = `() => document.body.scrollHeight`
	jsScrollOffset = `() => window.pageYOffset`
	jsScrollBy     = `(y) => window.scrollBy(0, y)`
)

// delay is a [min, max] range for a randomized pause.
type delay struct{ min, max time.Duration }

var (
	tabBefore      = delay{300 * time.Millisecond, 700 * time.Millisecond}
	tabAfter       = delay{800 * time.Millisecond, 1500 * time.Millisecond}
	loadMoreBefore = delay{300 * time.Millisecond, 700 * time.Millisecond}
	loadMoreAfter  = delay{1500 * time.Millisecond, 2500 * time.Millisecond}
	scrollStep     = delay{200 * time.Millisecond, 500 * time.Millisecond}
	scrollSettle   = delay{1500 * time.Millisecond, 2500 * time.Millisecond}
	pageBefore     = delay{500 * time.Millisecond, 1000 * time.Millisecond}
	pageAfter      = delay{1000 * time.Millisecond, 2000 * time.Millisecond}
)

const (
	minScrollSteps = 3
	maxScrollSteps = 5
)

// Attempt is the outcome of one best-effort interaction step. Performed
// can be true alongside a non-nil Err when the action happened but a
// later part of the step failed.
type Attempt struct {
	Performed bool
	Err       error
}

// interactions runs the scripted tab, load-more, scroll and pagination
// steps on one session and records telemetry into res.
type interactions struct {
	session Session
	pacer   jitter.Pacer
	cfg     config.ScraperConfig
	catalog *config.Catalog
	res     *models.ScrapeResult
}

func (it *interactions) pause(ctx context.Context, d delay) error {
	return it.pacer.Pause(ctx, d.min, d.max)
}

// fail records an interaction failure that ends its script.
func (it *interactions) fail(phase models.Phase, step string, err error) {
	slog.Info("interaction stopped", "phase", phase,
		"error", models.NewEngineError(models.ErrCodeInteraction, step, err))
	it.res.AddError(phase, fmt.Sprintf("%s error: %v", step, err))
}

// click scrolls el into view and clicks it between two pauses.
func (it *interactions) click(ctx context.Context, el Element, before, after delay) Attempt {
	if err := el.ScrollIntoView(); err != nil {
		return Attempt{Err: err}
	}
	if err := it.pause(ctx, before); err != nil {
		return Attempt{Err: err}
	}
	if err := el.Click(it.cfg.ClickTimeout); err != nil {
		return Attempt{Err: err}
	}
	if err := it.pause(ctx, after); err != nil {
		return Attempt{Performed: true, Err: err}
	}
	return Attempt{Performed: true}
}

// revealTabs clicks up to MaxTabClicks elements of the first tab pattern
// that matches anything.
func (it *interactions) revealTabs(ctx context.Context) {
	for _, sel := range it.catalog.Tabs {
		if ctx.Err() != nil {
			return
		}
		tabs, err := query(it.session, sel)
		if err != nil {
			slog.Debug("tabs: query failed", "selector", sel.String(), "error", err)
			continue
		}
		if len(tabs) == 0 {
			continue
		}
		for i, tab := range tabs[:min(len(tabs), it.cfg.MaxTabClicks)] {
			a := it.click(ctx, tab, tabBefore, tabAfter)
			if a.Performed {
				it.res.Interactions.Clicks = append(it.res.Interactions.Clicks, fmt.Sprintf("%s:nth(%d)", sel, i))
			}
			if a.Err != nil {
				slog.Debug("tabs: click failed", "selector", sel.String(), "index", i, "error", a.Err)
			}
		}
		return
	}
}

// loadMore clicks each load-more pattern until no visible match remains,
// at most MaxLoadMoreClick times per pattern.
func (it *interactions) loadMore(ctx context.Context) {
	for _, sel := range it.catalog.LoadMore {
		for i := 0; i < it.cfg.MaxLoadMoreClick; i++ {
			if ctx.Err() != nil {
				return
			}
			els, err := query(it.session, sel)
			if err != nil {
				slog.Debug("load-more: query failed", "selector", sel.String(), "error", err)
				break
			}
			button := firstVisible(els)
			if button == nil {
				break
			}
			a := it.click(ctx, button, loadMoreBefore, loadMoreAfter)
			if a.Performed {
				it.res.Interactions.Clicks = append(it.res.Interactions.Clicks, fmt.Sprintf("%s:click(%d)", sel, i))
			}
			if a.Err != nil {
				slog.Debug("load-more: click failed", "selector", sel.String(), "error", a.Err)
				break
			}
		}
	}
}

// scroll triggers lazy loading. A round that leaves the document height
// unchanged ends the loop; it still counts.
func (it *interactions) scroll(ctx context.Context) {
	for round := 0; round < it.cfg.MaxScrolls; round++ {
		grew, err := it.scrollRound(ctx)
		if err != nil {
			it.fail(models.PhaseScroll, "Scroll", err)
			return
		}
		it.res.Interactions.Scrolls++
		if !grew {
			return
		}
	}
}

func (it *interactions) scrollRound(ctx context.Context) (bool, error) {
	before, err := it.session.Eval(jsScrollHeight)
	if err != nil {
		return false, err
	}
	current, err := it.session.Eval(jsScrollOffset)
	if err != nil {
		return false, err
	}
	target := before.Num()

	steps := it.pacer.Between(minScrollSteps, maxScrollSteps)
	for step := 0; step < steps; step++ {
		amount := (target - current.Num()) / float64(steps-step)
		if _, err := it.session.Eval(jsScrollBy, amount); err != nil {
			return false, err
		}
		if err := it.pause(ctx, scrollStep); err != nil {
			return false, err
		}
	}
	if err := it.pause(ctx, scrollSettle); err != nil {
		return false, err
	}

	after, err := it.session.Eval(jsScrollHeight)
	if err != nil {
		return false, err
	}
	return after.Num() != before.Num(), nil
}

// findNext returns the first visible element across the next-page
// patterns, trying them in priority order.
func (it *interactions) findNext() Element {
	for _, sel := range it.catalog.NextPage {
		els, err := query(it.session, sel)
		if err != nil {
			continue
		}
		if el := firstVisible(els); el != nil {
			return el
		}
	}
	return nil
}

// paginate follows next-page controls for up to MaxPages-1 extra pages.
// A failed click or idle wait stops pagination and is recorded.
func (it *interactions) paginate(ctx context.Context, startURL string) {
	pages := &it.res.Interactions.Pages
	for n := 0; n < it.cfg.MaxPages-1; n++ {
		if ctx.Err() != nil {
			return
		}
		next := it.findNext()
		if next == nil {
			return
		}

		if href, ok, err := next.Attribute("href"); err == nil && ok && href != "" {
			if abs, ok := resolveAgainst(it.session.URL(), startURL, href); ok && !slices.Contains(*pages, abs) {
				*pages = append(*pages, abs)
			}
		}

		if err := it.followNext(ctx, next); err != nil {
			it.fail(models.PhasePagination, "Pagination", err)
			return
		}
	}
}

func (it *interactions) followNext(ctx context.Context, next Element) error {
	if err := it.pause(ctx, pageBefore); err != nil {
		return err
	}
	if err := next.ScrollIntoView(); err != nil {
		return err
	}
	if err := next.Click(it.cfg.ClickTimeout); err != nil {
		return err
	}
	if err := it.session.WaitIdle(it.cfg.IdleTimeout); err != nil {
		return err
	}
	return it.pause(ctx, pageAfter)
}

// resolveAgainst makes href absolute against the current page URL, or
// fallback when the current URL is unknown.
func resolveAgainst(current, fallback, href string) (string, bool) {
	if current == "" {
		current = fallback
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
