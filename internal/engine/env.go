package engine

import (
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go_youtube/internal/engine/archive"
	"github.com/joho/godotenv"
)

// LoadConfig reads the engine configuration from the environment, after
// loading a .env file from the working directory when one exists.
// BrowserClient is left nil; callers attach it.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		DefaultLanguage:      env.Str("YT_DEFAULT_LANGUAGE", "en"),
		LanguageFallbacks:    env.List("YT_LANGUAGE_FALLBACKS", "en"),
		TranscriptCommand:    strings.Fields(env.Str("TRANSCRIPT_COMMAND", "")),
		TranscriptTimeout:    env.Duration("TRANSCRIPT_TIMEOUT", 60*time.Second),
		YouTubeAPIKey:        env.Str("YOUTUBE_API_KEY", ""),
		ChannelMaxResults:    env.Int("CHANNEL_MAX_RESULTS", 500),
		ContinuationRPS:      env.Float("CHANNEL_CONTINUATION_RPS", 4),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		TranscriptDB:         env.Str("TRANSCRIPT_DB", archive.DefaultSQLitePath()),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}
