package engine

import (
	"strings"

	"github.com/use-agent/pagemap/models"
)

const (
	minSections   = 2
	minTextLength = 200
)

// blockIndicators in an error message mean the site refused us; a browser
// would be refused too.
var blockIndicators = []string{"403", "429", "Forbidden", "Too Many Requests"}

// needsRendering decides whether a static result should be retried with
// the render pass.
func needsRendering(res *models.ScrapeResult) bool {
	for _, e := range res.Errors {
		for _, token := range blockIndicators {
			if strings.Contains(e.Message, token) {
				return false
			}
		}
	}
	return len(res.Sections) < minSections || res.TextLength() < minTextLength
}

// adopt copies a pass result into the top-level result, keeping the
// top-level url and timestamp.
func adopt(dst, src *models.ScrapeResult) {
	dst.Meta = src.Meta
	dst.Sections = src.Sections
	dst.Interactions = src.Interactions
	dst.Errors = append(dst.Errors, src.Errors...)
}

// merge folds the render result j into the static result s.
//
//   - sections:     j's only when it has strictly more
//   - meta:         j's when it found a title
//   - interactions: always j's, rendering is their only source
//   - errors:       accumulated
func merge(s, j *models.ScrapeResult) {
	usedJS := false
	if len(j.Sections) > len(s.Sections) {
		s.Sections = j.Sections
		usedJS = true
	}
	if j.Meta.Title != "" {
		s.Meta = j.Meta
		usedJS = true
	}
	if usedJS {
		s.Meta.Strategy = models.StrategyJS
	}
	s.Interactions = j.Interactions
	s.Errors = append(s.Errors, j.Errors...)
}
