package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/pagemap/extractor"
	"github.com/use-agent/pagemap/models"
)

// StaticPass fetches markup over plain HTTP and extracts it without
// running any script.
type StaticPass struct {
	fetcher   Fetcher
	extractor *extractor.Extractor
}

// NewStaticPass creates a StaticPass.
func NewStaticPass(fetcher Fetcher, ext *extractor.Extractor) *StaticPass {
	return &StaticPass{fetcher: fetcher, extractor: ext}
}

func (p *StaticPass) Name() string { return "http" }

func (p *StaticPass) Run(ctx context.Context, req *Request) *models.ScrapeResult {
	res := models.NewScrapeResult(req.URL, time.Now().UTC(), models.StrategyStatic)

	page, err := p.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		recordFetchError(res, err)
		slog.Info("static pass: fetch failed", "url", req.URL, "error", err)
		return res
	}

	meta, sections, err := p.extractor.Extract(page.HTML, req.URL, extractor.Options{Markdown: req.Markdown})
	if err != nil {
		res.AddError(models.PhaseFetch, err.Error())
		return res
	}
	meta.Strategy = models.StrategyStatic
	res.Meta = meta
	res.Sections = sections
	return res
}

// recordFetchError turns a fetch failure into an error record.
func recordFetchError(res *models.ScrapeResult, err error) {
	var ee *models.EngineError
	if !errors.As(err, &ee) {
		res.AddError(models.PhaseFetch, "Request failed: "+err.Error())
		return
	}
	if ee.Code == models.ErrCodeHTTPStatus {
		res.AddErrorWithSuggestion(models.PhaseFetch, ee.Message, blockedSuggestion)
		return
	}
	res.AddError(models.PhaseFetch, ee.Message)
}
