package scraper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/extractor"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
)

const (
	renderURL  = "https://example.com/list"
	renderPage = `<html><head><title>Listing</title></head><body>
		<main><h1>Products</h1><p>First product description here.</p><p>Second product description here.</p></main>
		<footer><p>Footer text that is long enough.</p></footer>
	</body></html>`
)

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		NavigationTimeout: 30 * time.Second,
		BodyTimeout:       10 * time.Second,
		IdleTimeout:       10 * time.Second,
		ClickTimeout:      5 * time.Second,
		MaxScrolls:        3,
		MaxPages:          3,
		MaxTabClicks:      3,
		MaxLoadMoreClick:  3,
	}
}

func newTestRenderer(s *fakeSession) (*Renderer, *fakeLauncher, *jitter.Instant) {
	l := &fakeLauncher{session: s}
	pacer := jitter.NewInstant(3)
	r := NewRenderer(l, extractor.New(config.ExtractConfig{}), config.DefaultCatalog(), testScraperConfig(), pacer)
	return r, l, pacer
}

func visible(text string) *fakeElement {
	return &fakeElement{text: text, visible: true}
}

func TestRender_FullInteractionFlow(t *testing.T) {
	tabs := []*fakeElement{visible("A"), visible("B"), visible("C"), visible("D"), visible("E")}
	loadMore := visible("Load more items")
	loadMore.onClick = func(el *fakeElement) { el.visible = false }
	next := &fakeElement{text: "Next", visible: true, attrs: map[string]string{"href": "?page=2"}}
	next.onClick = func(el *fakeElement) { el.attrs["href"] = fmt.Sprintf("?page=%d", el.clicks+2) }

	s := &fakeSession{
		url:  renderURL,
		html: renderPage,
		elements: map[string][]*fakeElement{
			`[role="tab"]`:          tabs,
			`button[aria-selected]`: {visible("never")},
			"button":                {loadMore},
			"a":                     {next},
		},
		heights: []float64{1000, 2000, 2000, 2000},
	}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})

	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %+v", res.Errors)
	}
	wantClicks := []string{
		`[role="tab"]:nth(0)`,
		`[role="tab"]:nth(1)`,
		`[role="tab"]:nth(2)`,
		`button:has-text("Load more"):click(0)`,
	}
	if !slices.Equal(res.Interactions.Clicks, wantClicks) {
		t.Errorf("Clicks = %q, want %q", res.Interactions.Clicks, wantClicks)
	}
	if tabs[3].clicks != 0 {
		t.Error("clicked more tabs than allowed")
	}
	if res.Interactions.Scrolls != 2 {
		t.Errorf("Scrolls = %d, want 2", res.Interactions.Scrolls)
	}
	wantPages := []string{renderURL, renderURL + "?page=2", renderURL + "?page=3"}
	if !slices.Equal(res.Interactions.Pages, wantPages) {
		t.Errorf("Pages = %q, want %q", res.Interactions.Pages, wantPages)
	}
	if next.clicks != 2 {
		t.Errorf("next clicked %d times, want 2", next.clicks)
	}

	if res.Meta.Strategy != models.StrategyJS || res.Meta.Title != "Listing" {
		t.Errorf("Meta = %+v", res.Meta)
	}
	if len(res.Sections) != 2 {
		t.Errorf("got %d sections, want 2", len(res.Sections))
	}
	if len(s.removed) != len(config.DefaultCatalog().Noise) {
		t.Errorf("noise selectors run = %d", len(s.removed))
	}
	if s.closed != 1 {
		t.Errorf("session closed %d times, want 1", s.closed)
	}
}

func TestRender_NavigationTimeout(t *testing.T) {
	s := &fakeSession{navErr: fmt.Errorf("navigate: %w", context.DeadlineExceeded)}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhaseRender || !strings.HasPrefix(res.Errors[0].Message, "Timeout: ") {
		t.Errorf("Errors = %+v", res.Errors)
	}
	if len(res.Sections) != 0 || res.Interactions.Pages[0] != renderURL || res.Meta.Strategy != models.StrategyJS {
		t.Errorf("result not fully formed: %+v", res)
	}
	if s.closed != 1 {
		t.Errorf("session closed %d times, want 1", s.closed)
	}
}

func TestRender_NavigationFailure(t *testing.T) {
	s := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhaseJSScrape {
		t.Errorf("Errors = %+v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "ERR_NAME_NOT_RESOLVED") {
		t.Errorf("Message = %q", res.Errors[0].Message)
	}
	if s.closed != 1 {
		t.Errorf("session closed %d times, want 1", s.closed)
	}
}

func TestRender_UnsettledNetworkUsesCurrentDOM(t *testing.T) {
	s := &fakeSession{url: renderURL, html: renderPage, idleErr: fmt.Errorf("wait idle: %w", context.DeadlineExceeded)}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %+v", res.Errors)
	}
	if s.idleWait != 1 {
		t.Errorf("idle waits = %d, want 1", s.idleWait)
	}
	if len(res.Sections) != 2 || res.Meta.Title != "Listing" {
		t.Errorf("Sections = %d, Meta = %+v", len(res.Sections), res.Meta)
	}
}

func TestRender_BodyTimeout(t *testing.T) {
	s := &fakeSession{bodyErr: context.DeadlineExceeded}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhaseRender {
		t.Errorf("Errors = %+v", res.Errors)
	}
	if s.closed != 1 {
		t.Errorf("session closed %d times, want 1", s.closed)
	}
}

func TestRender_OpenFails(t *testing.T) {
	r, l, _ := newTestRenderer(nil)
	l.err = models.NewEngineError(models.ErrCodeBrowserCrash, "failed to create browser context", errors.New("websocket closed"))

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhaseJSScrape {
		t.Errorf("Errors = %+v", res.Errors)
	}
	if res.URL != renderURL || len(res.Interactions.Pages) != 1 {
		t.Errorf("result not fully formed: %+v", res)
	}
}

func TestRender_CanceledStillCloses(t *testing.T) {
	s := &fakeSession{html: renderPage}
	r, _, _ := newTestRenderer(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Render(ctx, renderURL, extractor.Options{})
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %+v", res.Errors)
	}
	if s.closed != 1 {
		t.Errorf("session closed %d times, want 1", s.closed)
	}
}

func TestRender_ScrollErrorRecorded(t *testing.T) {
	s := &fakeSession{url: renderURL, html: renderPage, scrollErr: errors.New("execution context destroyed")}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhaseScroll {
		t.Fatalf("Errors = %+v", res.Errors)
	}
	if res.Errors[0].Message != "Scroll error: execution context destroyed" {
		t.Errorf("Message = %q", res.Errors[0].Message)
	}
	if res.Interactions.Scrolls != 0 {
		t.Errorf("Scrolls = %d", res.Interactions.Scrolls)
	}
	if len(res.Sections) == 0 {
		t.Error("scroll failure should not stop extraction")
	}
}

func TestRender_ScrollStopsWhenHeightUnchanged(t *testing.T) {
	s := &fakeSession{url: renderURL, html: renderPage, heights: []float64{1000}}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if res.Interactions.Scrolls != 1 {
		t.Errorf("Scrolls = %d, want 1", res.Interactions.Scrolls)
	}
	if n := len(s.scrolledBy); n < minScrollSteps || n > maxScrollSteps {
		t.Errorf("scroll steps = %d", n)
	}
}

func TestRender_ScrollRespectsMax(t *testing.T) {
	s := &fakeSession{url: renderURL, html: renderPage, heights: []float64{1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000}}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if res.Interactions.Scrolls != 3 {
		t.Errorf("Scrolls = %d, want 3", res.Interactions.Scrolls)
	}
}

func TestRender_PaginationErrorRecorded(t *testing.T) {
	next := &fakeElement{text: "Next page", visible: true, attrs: map[string]string{"href": "/list/2"}, clickErr: errors.New("element detached")}
	s := &fakeSession{
		url:      renderURL,
		html:     renderPage,
		elements: map[string][]*fakeElement{"a": {next}},
	}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhasePagination {
		t.Fatalf("Errors = %+v", res.Errors)
	}
	if res.Errors[0].Message != "Pagination error: element detached" {
		t.Errorf("Message = %q", res.Errors[0].Message)
	}
	want := []string{renderURL, "https://example.com/list/2"}
	if !slices.Equal(res.Interactions.Pages, want) {
		t.Errorf("Pages = %q, want %q", res.Interactions.Pages, want)
	}
	if len(res.Sections) == 0 {
		t.Error("pagination failure should not stop extraction")
	}
}

func TestRender_PaginationIdleTimeoutStops(t *testing.T) {
	next := &fakeElement{text: "→", visible: true, attrs: map[string]string{"href": "/list/2"}}
	s := &fakeSession{
		url:      renderURL,
		html:     renderPage,
		elements: map[string][]*fakeElement{"a": {next}},
		idleErr:  context.DeadlineExceeded,
	}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if next.clicks != 1 {
		t.Errorf("next clicked %d times, want 1", next.clicks)
	}
	if len(res.Errors) != 1 || res.Errors[0].Phase != models.PhasePagination {
		t.Errorf("Errors = %+v", res.Errors)
	}
}

func TestRender_InvisibleNextIgnored(t *testing.T) {
	hidden := &fakeElement{text: "Next", visible: false, attrs: map[string]string{"href": "/hidden"}}
	s := &fakeSession{
		url:      renderURL,
		html:     renderPage,
		elements: map[string][]*fakeElement{"a": {hidden}},
	}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Interactions.Pages) != 1 || hidden.clicks != 0 {
		t.Errorf("Pages = %q, clicks = %d", res.Interactions.Pages, hidden.clicks)
	}
}

func TestRender_TabFailuresSwallowed(t *testing.T) {
	broken := &fakeElement{text: "Tab", visible: true, clickErr: errors.New("not clickable")}
	s := &fakeSession{
		url:      renderURL,
		html:     renderPage,
		elements: map[string][]*fakeElement{`.tabs button`: {broken, broken}},
	}
	r, _, _ := newTestRenderer(s)

	res := r.Render(context.Background(), renderURL, extractor.Options{})
	if len(res.Errors) != 0 || len(res.Interactions.Clicks) != 0 {
		t.Errorf("Errors = %+v, Clicks = %q", res.Errors, res.Interactions.Clicks)
	}
	if len(res.Sections) == 0 {
		t.Error("tab failures should not stop extraction")
	}
}

func TestRender_Pacing(t *testing.T) {
	s := &fakeSession{url: renderURL, html: renderPage}
	r, _, pacer := newTestRenderer(s)

	r.Render(context.Background(), renderURL, extractor.Options{})

	// settle pause + one scroll round: steps + settle
	if pacer.Waited() < settleDelay.min+minScrollSteps*scrollStep.min+scrollSettle.min {
		t.Errorf("Waited = %s", pacer.Waited())
	}
}
