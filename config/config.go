package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Extract   ExtractConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Batch     BatchConfig
	Log       LogConfig

	// CatalogPath optionally points at a YAML file overriding the
	// compiled-in selector and user-agent tables.
	CatalogPath string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the rod browser instance and its sessions.
type BrowserConfig struct {
	// Enabled toggles the render capability. When false, or when the
	// browser fails to launch, scrapes are fetch-only.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxSessions bounds how many isolated sessions may be open at once.
	MaxSessions int // default: 4

	// DefaultProxy is the proxy URL for the browser and the fetch client.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	ViewportWidth  int    // default: 1920
	ViewportHeight int    // default: 1080
	Locale         string // default: "en-US"
	Timezone       string // default: "America/New_York"

	Latitude  float64 // default: 40.7128
	Longitude float64 // default: -74.0060
}

// ScraperConfig controls timeouts and interaction bounds.
type ScraperConfig struct {
	// FetchTimeout is the total deadline of one static fetch.
	FetchTimeout time.Duration // default: 30s

	// NavigationTimeout bounds navigation until the document is parsed.
	NavigationTimeout time.Duration // default: 30s

	// BodyTimeout bounds the wait for the body element after load.
	BodyTimeout time.Duration // default: 10s

	// IdleTimeout bounds each network-idle wait: after navigation, where
	// running out is not an error, and after a pagination click.
	IdleTimeout time.Duration // default: 10s

	// ClickTimeout bounds a single click.
	ClickTimeout time.Duration // default: 5s

	MaxScrolls       int // default: 3
	MaxPages         int // default: 3
	MaxTabClicks     int // default: 3
	MaxLoadMoreClick int // default: 3

	// BlockedResourceTypes lists resource types aborted during rendering.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds aborts requests to known ad and tracking hosts.
	BlockAds bool // default: true
}

// ExtractConfig toggles optional extraction enrichment.
type ExtractConfig struct {
	// DetectLanguage guesses the language from text when <html lang> is missing.
	DetectLanguage bool // default: false

	// EnrichMeta adds site name and author from readability.
	EnrichMeta bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// BatchConfig controls the synchronous batch endpoint.
type BatchConfig struct {
	MaxURLs     int // default: 20
	Concurrency int // default: 4
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PAGEMAP_HOST", "0.0.0.0"),
			Port: envIntOr("PAGEMAP_PORT", 8080),
			Mode: envOr("PAGEMAP_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:        envBoolOr("PAGEMAP_RENDER_ENABLED", true),
			Headless:       envBoolOr("PAGEMAP_HEADLESS", true),
			MaxSessions:    envIntOr("PAGEMAP_MAX_SESSIONS", 4),
			DefaultProxy:   os.Getenv("PAGEMAP_PROXY"),
			NoSandbox:      envBoolOr("PAGEMAP_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("PAGEMAP_BROWSER_BIN"),
			ViewportWidth:  envIntOr("PAGEMAP_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("PAGEMAP_VIEWPORT_HEIGHT", 1080),
			Locale:         envOr("PAGEMAP_LOCALE", "en-US"),
			Timezone:       envOr("PAGEMAP_TIMEZONE", "America/New_York"),
			Latitude:       envFloatOr("PAGEMAP_GEO_LAT", 40.7128),
			Longitude:      envFloatOr("PAGEMAP_GEO_LON", -74.0060),
		},
		Scraper: ScraperConfig{
			FetchTimeout:      envDurationOr("PAGEMAP_FETCH_TIMEOUT", 30*time.Second),
			NavigationTimeout: envDurationOr("PAGEMAP_NAV_TIMEOUT", 30*time.Second),
			BodyTimeout:       envDurationOr("PAGEMAP_BODY_TIMEOUT", 10*time.Second),
			IdleTimeout:       envDurationOr("PAGEMAP_IDLE_TIMEOUT", 10*time.Second),
			ClickTimeout:      envDurationOr("PAGEMAP_CLICK_TIMEOUT", 5*time.Second),
			MaxScrolls:        envIntOr("PAGEMAP_MAX_SCROLLS", 3),
			MaxPages:          envIntOr("PAGEMAP_MAX_PAGES", 3),
			MaxTabClicks:      envIntOr("PAGEMAP_MAX_TAB_CLICKS", 3),
			MaxLoadMoreClick:  envIntOr("PAGEMAP_MAX_LOAD_MORE", 3),
			BlockedResourceTypes: envSliceOr("PAGEMAP_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds: envBoolOr("PAGEMAP_BLOCK_ADS", true),
		},
		Extract: ExtractConfig{
			DetectLanguage: envBoolOr("PAGEMAP_DETECT_LANGUAGE", false),
			EnrichMeta:     envBoolOr("PAGEMAP_ENRICH_META", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PAGEMAP_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PAGEMAP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PAGEMAP_RATE_RPS", 5.0),
			Burst:             envIntOr("PAGEMAP_RATE_BURST", 10),
		},
		Batch: BatchConfig{
			MaxURLs:     envIntOr("PAGEMAP_BATCH_MAX_URLS", 20),
			Concurrency: envIntOr("PAGEMAP_BATCH_CONCURRENCY", 4),
		},
		Log: LogConfig{
			Level:  envOr("PAGEMAP_LOG_LEVEL", "info"),
			Format: envOr("PAGEMAP_LOG_FORMAT", "json"),
		},
		CatalogPath: os.Getenv("PAGEMAP_CATALOG"),
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
