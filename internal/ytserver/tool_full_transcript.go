package ytserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type GetFullTranscriptInput struct {
	Video    string `json:"video" jsonschema:"YouTube video ID or URL"`
	Language string `json:"language,omitempty" jsonschema:"Caption language code (default: en)"`
	Format   string `json:"format,omitempty" jsonschema:"formatted (timestamped lines, default) or text"`
}

func registerGetFullTranscript(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_full_transcript",
		Description: "Get the complete transcript of a YouTube video in one response, without pagination. Prefer get_transcript for long videos.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, textTool("get_full_transcript", svc.GetFullTranscript))
}
