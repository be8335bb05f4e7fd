package ytserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type GetTranscriptInput struct {
	Video    string `json:"video" jsonschema:"YouTube video ID or URL"`
	Language string `json:"language,omitempty" jsonschema:"Caption language code (default: en)"`
	Page     int    `json:"page,omitempty" jsonschema:"Page number, starting at 1 (default 1)"`
	MaxItems *int   `json:"maxItems,omitempty" jsonschema:"Segments per page (default 50; 0 returns the whole transcript)"`
	Format   string `json:"format,omitempty" jsonschema:"formatted (timestamped lines, default) or text"`
}

func registerGetTranscript(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_transcript",
		Description: "Get the transcript of a YouTube video, paginated. Accepts a video ID or any YouTube video URL. Returns timestamped lines with a page header and a hint when more pages are available.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, textTool("get_transcript", svc.GetTranscript))
}
