// Package toolutil provides shared helper functions for go_youtube MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NormLang normalises a language field: empty string → the configured default.
func NormLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return engine.Cfg.DefaultLanguage
	}
	return lang
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	var out T
	if err := json.Unmarshal(cached, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(ctx, key, data)
}

// TextResult wraps text as a single-block tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult renders err as "Error: <message>" with the tool error flag set.
func ErrorResult(err error) *mcp.CallToolResult {
	engine.IncrToolErrors()
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
