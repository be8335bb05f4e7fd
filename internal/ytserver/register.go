package ytserver

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers the YouTube tools on the given MCP server:
// get_transcript, get_full_transcript, search_transcript, get_channel_videos.
func RegisterTools(server *mcp.Server, svc *Service) {
	registerGetTranscript(server, svc)
	registerGetFullTranscript(server, svc)
	registerSearchTranscript(server, svc)
	registerGetChannelVideos(server, svc)
}

// textTool adapts a Service method to an MCP handler. Every failure becomes
// an "Error: ..." result with the error flag set.
func textTool[In any](name string, run func(context.Context, In) (string, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		engine.IncrToolCalls()
		var text string
		err := engine.TrackOperation(ctx, name, func(ctx context.Context) error {
			var err error
			text, err = run(ctx, input)
			return err
		})
		if err != nil {
			slog.Warn(name+": failed", slog.Any("error", err))
			return toolutil.ErrorResult(err), nil, nil
		}
		return toolutil.TextResult(text), nil, nil
	}
}
