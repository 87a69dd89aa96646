package extractor

import (
	"net/url"
	"strings"

	"github.com/use-agent/pagemap/models"
)

// Per-section caps.
const (
	maxTextFragments = 15
	maxDivFragments  = 5
	minParagraphLen  = 10
	minDivLen        = 30
	minParagraphs    = 2

	maxLinks        = 20
	maxLinkText     = 100
	maxImages       = 10
	maxLists        = 5
	maxListItems    = 20
	maxListItemText = 200
	maxTables       = 3
	maxTableRows    = 20
	maxCellText     = 100
	maxRawHTML      = 1000
	maxLabel        = 80
	labelWords      = 10
	minLabelContext = 15

	// minLandmarks below which every article is also treated as a landmark.
	minLandmarks = 3
)

// Landmark kinds. The kind decides type overrides during classification.
const (
	kindMain    = "main"
	kindArticle = "article"
	kindHeader  = "header"
	kindNav     = "nav"
	kindFooter  = "footer"
	kindSection = "section"
	kindBody    = "body"
)

type landmark struct {
	node Node
	kind string
}

// discoverLandmarks finds extraction boundaries in a fixed order:
// main, article, header, nav, footer, every section, then remaining
// articles when few landmarks were found, and finally body.
func discoverLandmarks(root Node) []landmark {
	var found []landmark
	add := func(n Node, kind string) {
		if n == nil {
			return
		}
		for _, l := range found {
			if l.node.Equal(n) {
				return
			}
		}
		found = append(found, landmark{node: n, kind: kind})
	}

	for _, kind := range []string{kindMain, kindArticle, kindHeader, kindNav, kindFooter} {
		add(first(root, kind), kind)
	}
	for _, n := range root.Query("section") {
		add(n, kindSection)
	}
	if len(found) < minLandmarks {
		for _, n := range root.Query("article") {
			add(n, kindArticle)
		}
	}
	if len(found) == 0 {
		add(first(root, "body"), kindBody)
	}
	return found
}

// processSection turns one landmark into a section. ok is false when the
// landmark has neither text nor headings.
func processSection(n Node, kind string, base *url.URL, sourceURL string) (models.Section, bool) {
	content := models.Content{
		Headings: headingsOf(n),
		Text:     bodyText(n),
		Links:    linksOf(n, base),
		Images:   imagesOf(n, base),
		Lists:    listsOf(n),
		Tables:   tablesOf(n),
	}
	if content.Text == "" && len(content.Headings) == 0 {
		return models.Section{}, false
	}

	class, _ := n.Attr("class")
	id, _ := n.Attr("id")
	sectionType := classify(kind, strings.ToLower(class+" "+id), len(content.Lists) > 0)

	raw := n.Markup()
	truncated := false
	if runeLen(raw) > maxRawHTML {
		raw = truncate(raw, maxRawHTML) + "..."
		truncated = true
	}

	return models.Section{
		Type:      sectionType,
		Label:     buildLabel(sectionType, content),
		SourceURL: sourceURL,
		Content:   content,
		RawHTML:   raw,
		Truncated: truncated,
	}, true
}

func headingsOf(n Node) []string {
	headings := []string{}
	for _, h := range n.Query("h1, h2, h3, h4, h5, h6") {
		if t := cleanText(h.Text()); t != "" {
			headings = append(headings, t)
		}
	}
	return headings
}

// bodyText joins paragraph text, falling back to long div text when the
// landmark has too few paragraphs.
func bodyText(n Node) string {
	var parts []string
	for _, p := range n.Query("p") {
		if t := cleanText(p.Text()); runeLen(t) > minParagraphLen {
			parts = append(parts, t)
		}
	}
	if len(parts) < minParagraphs {
		for _, div := range n.Query("div") {
			if len(parts) >= maxDivFragments {
				break
			}
			if t := cleanText(div.Text()); runeLen(t) > minDivLen {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) > maxTextFragments {
		parts = parts[:maxTextFragments]
	}
	return strings.Join(parts, " ")
}

func linksOf(n Node, base *url.URL) []models.Link {
	links := []models.Link{}
	for _, a := range n.Query("a") {
		if len(links) >= maxLinks {
			break
		}
		href, _ := a.Attr("href")
		text := cleanText(a.Text())
		if strings.TrimSpace(href) == "" || text == "" {
			continue
		}
		abs, ok := resolve(base, href)
		if !ok {
			continue
		}
		links = append(links, models.Link{Text: truncate(text, maxLinkText), Href: abs})
	}
	return links
}

func imagesOf(n Node, base *url.URL) []models.Image {
	images := []models.Image{}
	for _, img := range n.Query("img") {
		if len(images) >= maxImages {
			break
		}
		src, _ := img.Attr("src")
		if strings.TrimSpace(src) == "" {
			src, _ = img.Attr("data-src")
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		abs, ok := resolve(base, src)
		if !ok {
			continue
		}
		alt, _ := img.Attr("alt")
		images = append(images, models.Image{Src: abs, Alt: strings.TrimSpace(alt)})
	}
	return images
}

func listsOf(n Node) [][]string {
	lists := [][]string{}
	for _, list := range n.Query("ul, ol") {
		if len(lists) >= maxLists {
			break
		}
		var items []string
		for _, li := range list.Query("li") {
			if len(items) >= maxListItems {
				break
			}
			if t := truncate(cleanText(li.Text()), maxListItemText); t != "" {
				items = append(items, t)
			}
		}
		if len(items) > 0 {
			lists = append(lists, items)
		}
	}
	return lists
}

func tablesOf(n Node) [][][]string {
	tables := [][][]string{}
	for _, table := range n.Query("table") {
		if len(tables) >= maxTables {
			break
		}
		var rows [][]string
		for _, tr := range table.Query("tr") {
			if len(rows) >= maxTableRows {
				break
			}
			cells := tr.Query("td, th")
			if len(cells) == 0 {
				continue
			}
			row := make([]string, 0, len(cells))
			for _, c := range cells {
				row = append(row, truncate(cleanText(c.Text()), maxCellText))
			}
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	}
	return tables
}
