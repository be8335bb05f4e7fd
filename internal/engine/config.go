package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DefaultLanguage      string
	LanguageFallbacks    []string
	TranscriptCommand    []string       // argv prefix of an external transcript fetcher; empty = InnerTube only
	TranscriptTimeout    time.Duration  // per subprocess call
	YouTubeAPIKey        string         // enables the Data API channel backend
	ChannelMaxResults    int            // hard cap for get_channel_videos maxResults
	ContinuationRPS      float64        // rate limit for channel continuation calls
	FetchTimeout         time.Duration
	TranscriptDB         string         // SQLite archive path; "off" disables
	DatabaseURL          string         // Postgres archive, preferred over SQLite when set
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain HTTP for watch pages
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, archive).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	cfg = c
	Cfg = &cfg
}
