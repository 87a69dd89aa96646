package extractor

import (
	"fmt"
	"strings"

	"github.com/use-agent/pagemap/models"
)

const fingerprintLen = 100

// fingerprint is the lowercased, trimmed prefix of a section's text.
func fingerprint(s models.Section) string {
	return strings.TrimSpace(strings.ToLower(truncate(s.Content.Text, fingerprintLen)))
}

// Deduplicate keeps the first section for each distinct fingerprint.
// Sections without text survive only when they carry a heading.
// Survivors keep their relative order.
func Deduplicate(sections []models.Section) []models.Section {
	seen := make(map[string]struct{}, len(sections))
	out := make([]models.Section, 0, len(sections))
	for _, s := range sections {
		fp := fingerprint(s)
		if fp == "" {
			if len(s.Content.Headings) > 0 {
				out = append(out, s)
			}
			continue
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, s)
	}
	return out
}

// assignIDs numbers sections by final position so ids are unique.
func assignIDs(sections []models.Section) {
	for i := range sections {
		sections[i].ID = fmt.Sprintf("%s-%d", sections[i].Type, i)
	}
}
