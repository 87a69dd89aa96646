package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter.
// The table plugin keeps tabular sections readable with minimal padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// toMarkdown converts a section's markup with links and images resolved
// against the full page URL, the same way Content.Links is built.
// Conversion errors yield an empty string.
func (e *Extractor) toMarkdown(markup string, pageURL *url.URL) string {
	md, err := e.markdown.ConvertString(absolutize(markup, pageURL),
		converter.WithDomain(pageURL.Scheme+"://"+pageURL.Host))
	if err != nil {
		slog.Debug("markdown conversion failed", "url", pageURL.String(), "error", err)
		return ""
	}
	return md
}

// absolutize rewrites a[href] and img[src] in markup to absolute URLs.
func absolutize(markup string, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	rewrite := func(sel, attr string) {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if abs, ok := resolve(pageURL, s.AttrOr(attr, "")); ok {
				s.SetAttr(attr, abs)
			}
		})
	}
	rewrite("a[href]", "href")
	rewrite("img[src]", "src")

	out, err := doc.Find("body").Html()
	if err != nil {
		return markup
	}
	return out
}
