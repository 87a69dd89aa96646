package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/use-agent/pagemap/models"
	"github.com/ysmood/gson"
)

// Launcher opens isolated render sessions. Each session has its own
// cookies and storage and must be closed by the caller.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one isolated browser context holding a single page. All
// calls are bound to the context the session was opened with.
type Session interface {
	// Navigate loads url and waits for the document to be parsed,
	// bounded by timeout.
	Navigate(url string, timeout time.Duration) error

	// WaitBody waits for the body element to exist.
	WaitBody(timeout time.Duration) error

	// Elements returns the elements matching a CSS selector, in document
	// order. No match is not an error.
	Elements(css string) ([]Element, error)

	// Eval runs a JS function expression with args and returns its result.
	Eval(js string, args ...any) (gson.JSON, error)

	// WaitIdle waits until no request has been in flight for a short
	// quiet window, bounded by timeout.
	WaitIdle(timeout time.Duration) error

	// URL is the address of the current document.
	URL() string

	// HTML serializes the current DOM.
	HTML() (string, error)

	// Close releases the page and its browser context. It is safe to call
	// more than once and does not depend on the session context.
	Close() error
}

// Element is a handle on a DOM node inside a Session.
type Element interface {
	Visible() (bool, error)
	Text() (string, error)
	Attribute(name string) (string, bool, error)
	ScrollIntoView() error
	Click(timeout time.Duration) error
}

// query resolves a Selector: CSS matches, narrowed to those whose visible
// text contains sel.Text when it is set.
func query(s Session, sel models.Selector) ([]Element, error) {
	els, err := s.Elements(sel.CSS)
	if err != nil || sel.Text == "" {
		return els, err
	}
	want := strings.ToLower(sel.Text)
	var matched []Element
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), want) {
			matched = append(matched, el)
		}
	}
	return matched, nil
}

// firstVisible returns the first visible element of els, or nil.
func firstVisible(els []Element) Element {
	for _, el := range els {
		if ok, err := el.Visible(); err == nil && ok {
			return el
		}
	}
	return nil
}
