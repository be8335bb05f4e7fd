// go_youtube: YouTube transcript and channel MCP server.
//
// Exposes four MCP tools: get_transcript, get_full_transcript,
// search_transcript, get_channel_videos.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	initEngine()
	mcpPort := env.Str("MCP_PORT", "8892")

	slog.Info("starting go_youtube",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_youtube",
		Version: version,
	}, nil)

	svc := ytserver.NewService()
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("archive close failed", slog.Any("error", err))
		}
	}()

	ytserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_youtube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.LoadConfig()

	bc, err := engine.NewBrowserClient(15, env.Str("WEBSHARE_API_KEY", ""))
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 30*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
