package extractor

import "log/slog"

const (
	// minLandmarkSections below which heading-delimited sections are added.
	minLandmarkSections = 3
	maxFallbackHeadings = 15
	maxFallbackSiblings = 16
)

func isSplitHeading(tag string) bool {
	return tag == "h1" || tag == "h2" || tag == "h3"
}

// headingLandmarks splits the body at h1-h3 headings and wraps each heading
// with the siblings that follow it into a virtual section.
func headingLandmarks(doc Document) []landmark {
	body := first(doc.Root(), "body")
	if body == nil {
		return nil
	}

	headings := body.Query("h1, h2, h3")
	if len(headings) > maxFallbackHeadings {
		headings = headings[:maxFallbackHeadings]
	}

	var found []landmark
	for _, h := range headings {
		parts := []Node{h}
		for _, sib := range h.FollowingSiblings() {
			if isSplitHeading(sib.Tag()) || len(parts) > maxFallbackSiblings {
				break
			}
			parts = append(parts, sib)
		}

		virtual, err := doc.Wrap("section", parts)
		if err != nil {
			slog.Debug("heading fallback: wrap failed", "error", err)
			continue
		}
		found = append(found, landmark{node: virtual, kind: kindSection})
	}
	return found
}
