package engine

import (
	"context"

	"github.com/use-agent/pagemap/models"
)

// Request is one scrape invocation.
type Request struct {
	URL string

	// Markdown asks the extractor to render each section as markdown too.
	Markdown bool
}

// Pass is one extraction pathway over a URL: the static fetch or the
// browser render. A pass never returns an error; failures are recorded in
// the result's Errors and the result is still fully formed.
type Pass interface {
	// Name returns the pass identifier (e.g. "http", "rod").
	Name() string

	// Run produces a result for req.URL.
	Run(ctx context.Context, req *Request) *models.ScrapeResult
}

// Fetcher retrieves raw markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchResult is the output of a successful fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
}
