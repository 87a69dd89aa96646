package extractor

import (
	"strings"

	"github.com/use-agent/pagemap/models"
)

// kindOverrides fixes the type of landmarks whose tag already says what they are.
var kindOverrides = map[string]string{
	kindHeader:  models.SectionHero,
	kindNav:     models.SectionNav,
	kindFooter:  models.SectionFooter,
	kindArticle: models.SectionGeneric,
}

// typeKeywords is checked in order against the lowercased class and id.
var typeKeywords = []struct {
	sectionType string
	keywords    []string
}{
	{models.SectionHero, []string{"hero", "banner", "jumbotron", "masthead"}},
	{models.SectionNav, []string{"nav", "menu", "navigation", "navbar"}},
	{models.SectionFooter, []string{"footer", "foot"}},
	{models.SectionFAQ, []string{"faq", "question", "accordion"}},
	{models.SectionPricing, []string{"pricing", "price", "plan", "tier"}},
	{models.SectionGrid, []string{"grid", "gallery", "cards"}},
}

var typeLabels = map[string]string{
	models.SectionHero:    "Hero",
	models.SectionNav:     "Navigation",
	models.SectionFooter:  "Footer",
	models.SectionFAQ:     "FAQ",
	models.SectionPricing: "Pricing",
	models.SectionGrid:    "Grid",
	models.SectionList:    "List",
	models.SectionGeneric: "Section",
	"article":             "Article",
}

// classify picks a section type from the landmark kind, then class/id
// keywords, then whether the section holds lists.
func classify(kind, classID string, hasLists bool) string {
	if t, ok := kindOverrides[kind]; ok {
		return t
	}
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(classID, kw) {
				return tk.sectionType
			}
		}
	}
	if hasLists {
		return models.SectionList
	}
	return models.SectionGeneric
}

// buildLabel uses the first heading, else the type name with a short
// excerpt of the body text.
func buildLabel(sectionType string, content models.Content) string {
	if len(content.Headings) > 0 {
		return truncate(content.Headings[0], maxLabel)
	}
	label, ok := typeLabels[sectionType]
	if !ok {
		label = "Section"
	}
	if context := firstWords(content.Text, labelWords); runeLen(context) > minLabelContext {
		label += ": " + context
	}
	return label
}
