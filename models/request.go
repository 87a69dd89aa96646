package models

import (
	"fmt"
	"net/url"
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required, http or https only.
	URL string `json:"url" binding:"required,url"`

	// Markdown additionally renders every section as Markdown.
	// Default: false.
	Markdown bool `json:"markdown,omitempty"`
}

// BatchRequest is the payload for POST /api/v1/batch/scrape.
type BatchRequest struct {
	// URLs is the list of target pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,dive,url"`

	// Markdown applies to every URL in the batch.
	Markdown bool `json:"markdown,omitempty"`
}

// ValidateTargetURL accepts absolute http and https URLs only.
func ValidateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
