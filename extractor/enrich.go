package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/pagemap/models"
)

// enrichMeta fills site name and author from the readability parse of the
// page. An og:site_name already found takes precedence. Failures leave
// meta untouched; enrichment never fails an extraction.
func enrichMeta(meta *models.Meta, markup string, base *url.URL) {
	article, err := readability.FromReader(strings.NewReader(markup), base)
	if err != nil {
		slog.Debug("readability: enrichment skipped", "url", base.String(), "error", err)
		return
	}
	if meta.SiteName == "" {
		meta.SiteName = strings.TrimSpace(article.SiteName)
	}
	if meta.Author == "" {
		meta.Author = strings.TrimSpace(article.Byline)
	}
}
