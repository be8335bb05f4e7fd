package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ToolCalls                atomic.Int64
	ToolErrors               atomic.Int64
	TranscriptFetches        atomic.Int64
	TranscriptFetchErrors    atomic.Int64
	SubprocessRuns           atomic.Int64
	ChannelFetches           atomic.Int64
	ChannelContinuations     atomic.Int64
	ChannelContinuationFails atomic.Int64
	ArchiveHits              atomic.Int64
	ArchiveMisses            atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"tool_calls", "tool_errors",
	"transcript_fetches", "transcript_fetch_errors", "subprocess_runs",
	"channel_fetches", "channel_continuations", "channel_continuation_failures",
	"archive_hits", "archive_misses",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"tool_calls":                    metrics.ToolCalls.Load(),
		"tool_errors":                   metrics.ToolErrors.Load(),
		"transcript_fetches":            metrics.TranscriptFetches.Load(),
		"transcript_fetch_errors":       metrics.TranscriptFetchErrors.Load(),
		"subprocess_runs":               metrics.SubprocessRuns.Load(),
		"channel_fetches":               metrics.ChannelFetches.Load(),
		"channel_continuations":         metrics.ChannelContinuations.Load(),
		"channel_continuation_failures": metrics.ChannelContinuationFails.Load(),
		"archive_hits":                  metrics.ArchiveHits.Load(),
		"archive_misses":                metrics.ArchiveMisses.Load(),
		"cache_hits":                    hits,
		"cache_misses":                  misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for ytserver/, sources/ and archive/.
func IncrToolCalls()                  { metrics.ToolCalls.Add(1) }
func IncrToolErrors()                 { metrics.ToolErrors.Add(1) }
func IncrTranscriptFetch()            { metrics.TranscriptFetches.Add(1) }
func IncrTranscriptFetchError()       { metrics.TranscriptFetchErrors.Add(1) }
func IncrSubprocessRuns()             { metrics.SubprocessRuns.Add(1) }
func IncrChannelFetch()               { metrics.ChannelFetches.Add(1) }
func IncrChannelContinuation()        { metrics.ChannelContinuations.Add(1) }
func IncrChannelContinuationFailure() { metrics.ChannelContinuationFails.Add(1) }
func IncrArchiveHit()                 { metrics.ArchiveHits.Add(1) }
func IncrArchiveMiss()                { metrics.ArchiveMisses.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
