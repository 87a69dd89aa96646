package models

// ScrapeResponse is the response for POST /api/v1/scrape.
// A scrape that ran always yields a Result, even when every pass failed;
// Error is only set for requests rejected before scraping started.
type ScrapeResponse struct {
	Result *ScrapeResult `json:"result,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent serving a request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// BatchResponse is the response for POST /api/v1/batch/scrape.
// Results are in the same order as the requested URLs.
type BatchResponse struct {
	Total   int             `json:"total"`
	Results []*ScrapeResult `json:"results"`
	Timing  TimingInfo      `json:"timing"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	Render       bool         `json:"render_available"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports render session utilisation.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
