package config

import (
	"fmt"
	"os"

	"github.com/use-agent/pagemap/models"
	"gopkg.in/yaml.v3"
)

// Catalog holds the read-only tables shared by every scrape: the user-agent
// pool, the hosts that always need rendering, and the selector priority
// lists used by the noise filter and the interaction scripts.
//
// A Catalog is built once at startup and must not be mutated afterwards.
type Catalog struct {
	UserAgents    []string          `yaml:"user_agents"`
	RenderDomains []string          `yaml:"render_domains"`
	Noise         []string          `yaml:"noise"`
	Tabs          []models.Selector `yaml:"tabs"`
	LoadMore      []models.Selector `yaml:"load_more"`
	NextPage      []models.Selector `yaml:"next_page"`
}

// DefaultCatalog returns the compiled-in tables.
func DefaultCatalog() *Catalog {
	return &Catalog{
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		},
		RenderDomains: []string{
			"wikipedia.org", "wikimedia.org", "medium.com", "vercel.com",
			"twitter.com", "x.com", "reddit.com", "linkedin.com",
			"instagram.com", "facebook.com", "youtube.com", "netflix.com",
			"airbnb.com", "uber.com",
		},
		Noise: []string{
			`[class*="cookie"]`,
			`[id*="cookie"]`,
			`[class*="modal"]`,
			`[class*="overlay"]`,
			`[class*="popup"]`,
			`[class*="consent"]`,
			`[aria-label*="cookie" i]`,
			`[aria-label*="consent" i]`,
			`.gdpr`,
			`#gdpr`,
		},
		Tabs: []models.Selector{
			{CSS: `[role="tab"]`},
			{CSS: `button[aria-selected]`},
			{CSS: `.tab:not(.active)`},
			{CSS: `.tabs button`},
			{CSS: `[data-tab]`},
		},
		LoadMore: []models.Selector{
			{CSS: "button", Text: "Load more"},
			{CSS: "button", Text: "Show more"},
			{CSS: "button", Text: "View more"},
			{CSS: "button", Text: "Read more"},
			{CSS: "a", Text: "Load more"},
			{CSS: `[class*="load-more"]`},
			{CSS: `[class*="show-more"]`},
		},
		NextPage: []models.Selector{
			{CSS: "a", Text: "Next"},
			{CSS: "a", Text: ">"},
			{CSS: "a", Text: "→"},
			{CSS: `a[rel="next"]`},
			{CSS: `a[aria-label*="next" i]`},
			{CSS: `[class*="next"]:not([class*="disabled"])`},
			{CSS: `[class*="pagination"] a:last-child`},
			{CSS: "button", Text: "More"},
		},
	}
}

// LoadCatalog returns the default catalog, with every table present in the
// YAML file at path replacing its compiled-in counterpart. An empty path
// yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	if len(override.UserAgents) > 0 {
		cat.UserAgents = override.UserAgents
	}
	if len(override.RenderDomains) > 0 {
		cat.RenderDomains = override.RenderDomains
	}
	if len(override.Noise) > 0 {
		cat.Noise = override.Noise
	}
	if len(override.Tabs) > 0 {
		cat.Tabs = override.Tabs
	}
	if len(override.LoadMore) > 0 {
		cat.LoadMore = override.LoadMore
	}
	if len(override.NextPage) > 0 {
		cat.NextPage = override.NextPage
	}

	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}

func (c *Catalog) validate() error {
	for _, list := range [][]models.Selector{c.Tabs, c.LoadMore, c.NextPage} {
		for _, s := range list {
			if s.CSS == "" {
				return fmt.Errorf("selector with empty css (text %q)", s.Text)
			}
		}
	}
	for _, ua := range c.UserAgents {
		if ua == "" {
			return fmt.Errorf("empty user agent")
		}
	}
	return nil
}
