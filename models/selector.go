package models

import "fmt"

// Selector is a pattern for locating interactive elements in a rendered page.
// CSS narrows the candidates; a non-empty Text keeps only candidates whose
// visible text contains it, case-insensitively.
type Selector struct {
	CSS  string `yaml:"css" json:"css"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

// String renders the selector in the notation recorded in click telemetry,
// e.g. `button:has-text("Load more")`.
func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return fmt.Sprintf("%s:has-text(%q)", s.CSS, s.Text)
}
