package ytserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchTranscriptInput struct {
	Video    string `json:"video" jsonschema:"YouTube video ID or URL"`
	Query    string `json:"query" jsonschema:"Text to find in the transcript (case-insensitive)"`
	Language string `json:"language,omitempty" jsonschema:"Caption language code (default: en)"`
	Context  *int   `json:"context,omitempty" jsonschema:"Lines of context around each match (default 2)"`
}

func registerSearchTranscript(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_transcript",
		Description: "Search a YouTube video transcript for a phrase. Returns every match with its timestamp and surrounding lines, the matched line in bold.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, textTool("search_transcript", svc.SearchTranscript))
}
