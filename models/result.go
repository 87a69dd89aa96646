package models

import "time"

// Strategy values recorded in Meta.Strategy.
const (
	StrategyStatic = "static"
	StrategyJS     = "js"
)

// Section types produced by the extractor.
const (
	SectionHero    = "hero"
	SectionNav     = "nav"
	SectionFooter  = "footer"
	SectionFAQ     = "faq"
	SectionPricing = "pricing"
	SectionGrid    = "grid"
	SectionList    = "list"
	SectionGeneric = "section"
)

// DefaultLanguage is reported when a page declares no language.
const DefaultLanguage = "en"

// ScrapeResult is the structured document returned for one scrape invocation.
// Every field carries a usable default, even when the scrape failed entirely.
type ScrapeResult struct {
	URL          string        `json:"url"`
	ScrapedAt    time.Time     `json:"scrapedAt"`
	Meta         Meta          `json:"meta"`
	Sections     []Section     `json:"sections"`
	Interactions Interactions  `json:"interactions"`
	Errors       []ScrapeError `json:"errors"`
}

// Meta holds page-level metadata.
type Meta struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Canonical   *string `json:"canonical"`
	Strategy    string  `json:"strategy"`

	SiteName string `json:"siteName,omitempty"`
	Author   string `json:"author,omitempty"`
}

// Section is one typed region of the page.
type Section struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	SourceURL string  `json:"sourceUrl"`
	Content   Content `json:"content"`
	RawHTML   string  `json:"rawHtml"`
	Truncated bool    `json:"truncated"`
}

// Content is the extracted payload of a section.
type Content struct {
	Headings []string     `json:"headings"`
	Text     string       `json:"text"`
	Links    []Link       `json:"links"`
	Images   []Image      `json:"images"`
	Lists    [][]string   `json:"lists"`
	Tables   [][][]string `json:"tables"`

	// Markdown is only filled when the caller asks for it.
	Markdown string `json:"markdown,omitempty"`
}

// Link is an anchor with an absolute href.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is an image with an absolute src.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Interactions is the telemetry of a rendering pass.
type Interactions struct {
	Clicks  []string `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// NewScrapeResult returns a fully defaulted result for url.
func NewScrapeResult(url string, scrapedAt time.Time, strategy string) *ScrapeResult {
	return &ScrapeResult{
		URL:       url,
		ScrapedAt: scrapedAt.UTC(),
		Meta: Meta{
			Language: DefaultLanguage,
			Strategy: strategy,
		},
		Sections: []Section{},
		Interactions: Interactions{
			Clicks: []string{},
			Pages:  []string{url},
		},
		Errors: []ScrapeError{},
	}
}

// AddError appends an error record.
func (r *ScrapeResult) AddError(phase Phase, message string) {
	r.Errors = append(r.Errors, ScrapeError{Message: message, Phase: phase})
}

// AddErrorWithSuggestion appends an error record carrying a remediation hint.
func (r *ScrapeResult) AddErrorWithSuggestion(phase Phase, message, suggestion string) {
	r.Errors = append(r.Errors, ScrapeError{Message: message, Phase: phase, Suggestion: suggestion})
}

// TextLength sums the character count of all section texts.
func (r *ScrapeResult) TextLength() int {
	n := 0
	for _, s := range r.Sections {
		n += len([]rune(s.Content.Text))
	}
	return n
}
