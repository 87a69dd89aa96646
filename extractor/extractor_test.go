package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/models"
)

const pageURL = "https://example.com/docs/page"

func extract(t *testing.T, markup string, opts Options) (models.Meta, []models.Section) {
	t.Helper()
	meta, sections, err := New(config.ExtractConfig{}).Extract(markup, pageURL, opts)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return meta, sections
}

func TestExtract_MainWithHeadingAndParagraphs(t *testing.T) {
	markup := `<html><head><title>Doc</title></head><body><main>
		<h1>Title</h1>
		<p>First paragraph of the page.</p>
		<p>Second paragraph of the page.</p>
		<p>Third paragraph of the page.</p>
	</main></body></html>`

	_, sections := extract(t, markup, Options{})

	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1: %+v", len(sections), sections)
	}
	s := sections[0]
	if s.Type != models.SectionGeneric {
		t.Errorf("Type = %q, want %q", s.Type, models.SectionGeneric)
	}
	if s.Label != "Title" {
		t.Errorf("Label = %q, want Title", s.Label)
	}
	if len(s.Content.Headings) != 1 || s.Content.Headings[0] != "Title" {
		t.Errorf("Headings = %q, want [Title]", s.Content.Headings)
	}
	want := "First paragraph of the page. Second paragraph of the page. Third paragraph of the page."
	if s.Content.Text != want {
		t.Errorf("Text = %q, want %q", s.Content.Text, want)
	}
	if s.ID != "section-0" {
		t.Errorf("ID = %q, want section-0", s.ID)
	}
	if s.SourceURL != pageURL {
		t.Errorf("SourceURL = %q", s.SourceURL)
	}
}

func TestExtract_LandmarkOrderAndTypes(t *testing.T) {
	markup := `<html><body>
		<footer><p>Footer text that is long enough.</p></footer>
		<nav><p>Navigation text that is long enough.</p></nav>
		<header><p>Header text that is long enough.</p></header>
		<main><p>Main text that is long enough here.</p></main>
	</body></html>`

	_, sections := extract(t, markup, Options{})

	wantTypes := []string{models.SectionGeneric, models.SectionHero, models.SectionNav, models.SectionFooter}
	if len(sections) != len(wantTypes) {
		t.Fatalf("got %d sections, want %d", len(sections), len(wantTypes))
	}
	for i, want := range wantTypes {
		if sections[i].Type != want {
			t.Errorf("sections[%d].Type = %q, want %q", i, sections[i].Type, want)
		}
		if wantID := fmt.Sprintf("%s-%d", want, i); sections[i].ID != wantID {
			t.Errorf("sections[%d].ID = %q, want %q", i, sections[i].ID, wantID)
		}
	}
}

func TestExtract_ExtraArticlesOnlyWhenFewLandmarks(t *testing.T) {
	markup := `<html><body>
		<article><p>First article body text here.</p></article>
		<article><p>Second article body text here.</p></article>
		<article><p>Third article body text here.</p></article>
	</body></html>`

	_, sections := extract(t, markup, Options{})
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}
	for i, s := range sections {
		if s.Type != models.SectionGeneric {
			t.Errorf("sections[%d].Type = %q, want section", i, s.Type)
		}
	}

	enough := `<html><body>
		<main><p>Main text that is long enough.</p></main>
		<header><p>Header text that is long enough.</p></header>
		<nav><p>Navigation text that is long enough.</p></nav>
		<article><p>First article body text here.</p></article>
		<article><p>Second article body text here.</p></article>
	</body></html>`
	_, sections = extract(t, enough, Options{})
	if len(sections) != 4 {
		t.Fatalf("got %d sections, want 4", len(sections))
	}
	for _, s := range sections {
		if strings.Contains(s.Content.Text, "Second article") {
			t.Errorf("second article should not be a landmark: %+v", s)
		}
	}
}

func TestExtract_SectionIDsUnique(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, `<section class="pricing"><p>Pricing tier number %d details.</p></section>`, i)
	}
	b.WriteString("</body></html>")

	_, sections := extract(t, b.String(), Options{})
	seen := map[string]bool{}
	for _, s := range sections {
		if seen[s.ID] {
			t.Errorf("duplicate id %q", s.ID)
		}
		seen[s.ID] = true
	}
	if len(sections) != 6 {
		t.Errorf("got %d sections, want 6", len(sections))
	}
}

func TestExtract_Caps(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><main><p>Paragraph with enough text.</p><p>Another paragraph with text.</p>`)
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<a href="/l/%d">link %d %s</a>`, i, i, strings.Repeat("x", 150))
	}
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<img src="/i/%d.png" alt="img %d">`, i, i)
	}
	for i := 0; i < 7; i++ {
		b.WriteString("<ul>")
		for j := 0; j < 25; j++ {
			fmt.Fprintf(&b, "<li>item %d</li>", j)
		}
		b.WriteString("</ul>")
	}
	for i := 0; i < 5; i++ {
		b.WriteString("<table>")
		for j := 0; j < 25; j++ {
			fmt.Fprintf(&b, "<tr><td>%d</td><th>%s</th></tr>", j, strings.Repeat("c", 150))
		}
		b.WriteString("</table>")
	}
	b.WriteString("</main></body></html>")

	_, sections := extract(t, b.String(), Options{})
	if len(sections) == 0 {
		t.Fatal("no sections")
	}
	for _, s := range sections {
		c := s.Content
		if len(c.Links) > 20 {
			t.Errorf("%s: %d links", s.ID, len(c.Links))
		}
		for _, l := range c.Links {
			if runeLen(l.Text) > 100 {
				t.Errorf("link text length %d", runeLen(l.Text))
			}
			if !strings.HasPrefix(l.Href, "https://example.com/l/") {
				t.Errorf("link not absolute: %q", l.Href)
			}
		}
		if len(c.Images) > 10 {
			t.Errorf("%s: %d images", s.ID, len(c.Images))
		}
		if len(c.Lists) > 5 {
			t.Errorf("%s: %d lists", s.ID, len(c.Lists))
		}
		for _, l := range c.Lists {
			if len(l) > 20 {
				t.Errorf("list with %d items", len(l))
			}
		}
		if len(c.Tables) > 3 {
			t.Errorf("%s: %d tables", s.ID, len(c.Tables))
		}
		for _, tbl := range c.Tables {
			if len(tbl) > 20 {
				t.Errorf("table with %d rows", len(tbl))
			}
			for _, row := range tbl {
				for _, cell := range row {
					if runeLen(cell) > 100 {
						t.Errorf("cell length %d", runeLen(cell))
					}
				}
			}
		}
		if runeLen(s.RawHTML) > 1003 {
			t.Errorf("rawHtml length %d", runeLen(s.RawHTML))
		}
	}

	main := sections[0]
	if len(main.Content.Links) != 20 || len(main.Content.Images) != 10 ||
		len(main.Content.Lists) != 5 || len(main.Content.Tables) != 3 {
		t.Errorf("main caps: links=%d images=%d lists=%d tables=%d",
			len(main.Content.Links), len(main.Content.Images), len(main.Content.Lists), len(main.Content.Tables))
	}
	if main.Content.Images[0].Src != "https://example.com/i/0.png" || main.Content.Images[0].Alt != "img 0" {
		t.Errorf("first image = %+v", main.Content.Images[0])
	}
}

func TestExtract_RawHTMLTruncation(t *testing.T) {
	long := strings.Repeat("word ", 400)
	markup := `<html><body>
		<main><p>` + long + `</p></main>
		<footer><p>Short footer paragraph.</p></footer>
	</body></html>`

	_, sections := extract(t, markup, Options{})
	if len(sections) < 2 {
		t.Fatalf("got %d sections, want at least 2", len(sections))
	}

	main := sections[0]
	if !main.Truncated {
		t.Error("main should be truncated")
	}
	if !strings.HasSuffix(main.RawHTML, "...") || runeLen(main.RawHTML) != 1003 {
		t.Errorf("truncated rawHtml length %d", runeLen(main.RawHTML))
	}

	footer := sections[1]
	if footer.Truncated {
		t.Error("footer should not be truncated")
	}
	if !strings.HasPrefix(footer.RawHTML, "<footer>") {
		t.Errorf("footer rawHtml = %q", footer.RawHTML)
	}
}

func TestExtract_DivFallbackForText(t *testing.T) {
	markup := `<html><body><main>
		<h2>Heading</h2>
		<div>This division holds text longer than thirty characters.</div>
	</main></body></html>`

	_, sections := extract(t, markup, Options{})
	if len(sections) == 0 {
		t.Fatal("no sections")
	}
	if got := sections[0].Content.Text; got != "This division holds text longer than thirty characters." {
		t.Errorf("Text = %q", got)
	}
}

func TestExtract_DiscardsEmptyLandmarks(t *testing.T) {
	markup := `<html><body>
		<nav><a href="/">Home</a></nav>
		<main><h1>Only heading</h1></main>
	</body></html>`

	_, sections := extract(t, markup, Options{})
	for _, s := range sections {
		if s.Content.Text == "" && len(s.Content.Headings) == 0 {
			t.Errorf("empty section kept: %+v", s)
		}
	}
	// main and its heading-fallback twin both survive: neither has text,
	// and heading-only sections are kept.
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2: %+v", len(sections), sections)
	}
	for _, s := range sections {
		if s.Type == models.SectionNav || s.Label != "Only heading" {
			t.Errorf("unexpected section %+v", s)
		}
	}
}

func TestExtract_HeadingFallback(t *testing.T) {
	markup := `<html><body>` +
		`<h2>Alpha</h2><p>Alpha paragraph one.</p><p>Alpha paragraph two.</p>` +
		`<h2>Beta</h2><p>Beta paragraph one.</p><p>Beta paragraph two.</p>` +
		`</body></html>`

	_, sections := extract(t, markup, Options{})
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3 (body + 2 headings): %+v", len(sections), sections)
	}
	if sections[1].Label != "Alpha" || sections[2].Label != "Beta" {
		t.Errorf("labels = %q, %q", sections[1].Label, sections[2].Label)
	}
	if got := sections[2].Content.Text; got != "Beta paragraph one. Beta paragraph two." {
		t.Errorf("Beta text = %q", got)
	}
	if len(sections[1].Content.Headings) != 1 {
		t.Errorf("Alpha headings = %q", sections[1].Content.Headings)
	}
}

func TestHeadingLandmarks_SiblingCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><h2>Long</h2>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %02d text</p>", i)
	}
	b.WriteString("</body></html>")

	doc, err := Parse(b.String())
	if err != nil {
		t.Fatal(err)
	}
	lms := headingLandmarks(doc)
	if len(lms) != 1 {
		t.Fatalf("got %d landmarks, want 1", len(lms))
	}
	if n := len(lms[0].node.Query("p")); n != 16 {
		t.Errorf("virtual section holds %d siblings, want 16", n)
	}
	if n := len(lms[0].node.Query("h2")); n != 1 {
		t.Errorf("virtual section holds %d headings, want 1", n)
	}
}

func TestExtract_Markdown(t *testing.T) {
	markup := `<html><body><main><h1>Title</h1><p>Some paragraph text here.</p><p>More paragraph text here.</p></main></body></html>`

	_, plain := extract(t, markup, Options{})
	if plain[0].Content.Markdown != "" {
		t.Error("markdown should be empty unless requested")
	}

	_, withMD := extract(t, markup, Options{Markdown: true})
	if md := withMD[0].Content.Markdown; !strings.Contains(md, "Title") || !strings.Contains(md, "Some paragraph text here.") {
		t.Errorf("Markdown = %q", md)
	}
}

func TestExtract_MarkdownLinksMatchContentLinks(t *testing.T) {
	markup := `<html><body><main><h1>Guide</h1>
		<p>Read the <a href="intro.html">introduction</a> and the <a href="/faq">FAQ</a> first.</p>
		<p><img src="img/diagram.png" alt="Diagram"> Some more paragraph text here.</p>
	</main></body></html>`

	_, sections := extract(t, markup, Options{Markdown: true})
	if len(sections) == 0 {
		t.Fatal("no sections")
	}
	sec := sections[0]
	md := sec.Content.Markdown

	for _, want := range []string{
		"https://example.com/docs/intro.html",
		"https://example.com/faq",
		"https://example.com/docs/img/diagram.png",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %s: %q", want, md)
		}
	}
	if strings.Contains(md, "https://example.com/intro.html") {
		t.Errorf("relative link resolved against the host only: %q", md)
	}
	for _, link := range sec.Content.Links {
		if !strings.Contains(md, link.Href) {
			t.Errorf("link %s missing from markdown", link.Href)
		}
	}
}

func TestExtract_InvalidURL(t *testing.T) {
	_, _, err := New(config.ExtractConfig{}).Extract("<p>x</p>", "://bad", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	meta, sections := extract(t, "", Options{})
	if sections == nil || len(sections) != 0 {
		t.Errorf("sections = %#v, want empty non-nil", sections)
	}
	if meta.Language != "en" {
		t.Errorf("Language = %q, want en", meta.Language)
	}
}
