package extractor

import (
	"net/url"
	"strings"

	"github.com/use-agent/pagemap/models"
)

// extractMeta reads title, description, language and canonical URL.
// Strategy is left for the caller.
func extractMeta(root Node, base *url.URL) models.Meta {
	meta := models.Meta{
		Title: firstNonEmpty(
			textOf(first(root, "title")),
			metaContent(root, `meta[property="og:title"]`),
			metaContent(root, `meta[name="twitter:title"]`),
		),
		Description: firstNonEmpty(
			metaContent(root, `meta[name="description"]`),
			metaContent(root, `meta[property="og:description"]`),
			metaContent(root, `meta[name="twitter:description"]`),
		),
		Language: models.DefaultLanguage,
		SiteName: metaContent(root, `meta[property="og:site_name"]`),
	}

	if lang := declaredLanguage(root); lang != "" {
		meta.Language = lang
	}

	if link := first(root, `link[rel="canonical"]`); link != nil {
		if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
			if abs, ok := resolve(base, href); ok {
				meta.Canonical = &abs
			}
		}
	}
	return meta
}

// declaredLanguage returns the primary subtag of <html lang>, or "".
func declaredLanguage(root Node) string {
	htmlEl := first(root, "html")
	if htmlEl == nil {
		return ""
	}
	lang, _ := htmlEl.Attr("lang")
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	primary, _, _ := strings.Cut(lang, "-")
	primary, _, _ = strings.Cut(primary, "_")
	return strings.ToLower(primary)
}

func metaContent(root Node, pattern string) string {
	n := first(root, pattern)
	if n == nil {
		return ""
	}
	content, _ := n.Attr("content")
	return strings.TrimSpace(content)
}

func textOf(n Node) string {
	if n == nil {
		return ""
	}
	return cleanText(n.Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolve makes ref absolute against base.
func resolve(base *url.URL, ref string) (string, bool) {
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	return u.String(), true
}
