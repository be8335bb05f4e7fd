package ytserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ChannelVideosInput struct {
	Channel    string `json:"channel" jsonschema:"Channel handle (@name), channel ID (UC...), or channel URL"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of videos (default 50)"`
	Format     string `json:"format,omitempty" jsonschema:"detailed (default), list, or ids_only"`
}

func registerGetChannelVideos(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_channel_videos",
		Description: "List the latest uploads of a YouTube channel. Accepts @handles, UC channel IDs, and channel URLs. Formats: detailed (title, URL, date, views), list (numbered IDs), ids_only.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, textTool("get_channel_videos", svc.ChannelVideos))
}
