package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTransport     = "TRANSPORT_FAILED"
	ErrCodeHTTPStatus    = "HTTP_STATUS"
	ErrCodeFetchTimeout  = "FETCH_TIMEOUT"
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRender        = "RENDER_FAILED"
	ErrCodeInteraction   = "INTERACTION_FAILED"
	ErrCodeUnavailable   = "RENDER_UNAVAILABLE"
	ErrCodeExtraction    = "CONTENT_EXTRACTION_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// Phase names the stage of a scrape that produced an error record.
type Phase string

const (
	PhaseFetch            Phase = "fetch"
	PhaseRender           Phase = "render"
	PhaseJSScrape         Phase = "js_scrape"
	PhaseScroll           Phase = "scroll"
	PhasePagination       Phase = "pagination"
	PhaseFallbackDecision Phase = "fallback_decision"
	PhaseRenderCheck      Phase = "playwright_check"
	PhaseScrape           Phase = "scrape"
)

// ScrapeError is an error record carried inside a ScrapeResult.
type ScrapeError struct {
	Message    string `json:"message"`
	Phase      Phase  `json:"phase"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EngineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type EngineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(code, message string, err error) *EngineError {
	return &EngineError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *EngineError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// IsTimeout reports whether the error represents an exceeded deadline at
// either the fetch or the render layer.
func (e *EngineError) IsTimeout() bool {
	return e.Code == ErrCodeFetchTimeout || e.Code == ErrCodeRenderTimeout
}
