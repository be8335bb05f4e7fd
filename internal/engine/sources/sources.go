// Package sources holds the external collaborators behind the YouTube tools:
// transcript fetchers and channel video listers.
//
//	youtube_innertube.go   InnerTube client: endpoints, payload types, watch page scrape
//	youtube_transcript.go  caption track selection and timedtext decoding
//	youtube_channel.go     channel listing over /navigation/resolve_url and /browse
//	youtube_dataapi.go     channel listing over the YouTube Data API v3
//	youtube_subprocess.go  external transcript command
//	chain.go               fallback chains and archive read-through
package sources

import (
	"context"

	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
)

// TranscriptFetcher fetches the timed transcript of one video.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error)
}

// TitleLookup resolves a video title. Used to fill titles for fetchers that
// do not report one.
type TitleLookup interface {
	VideoTitle(ctx context.Context, videoID string) (string, error)
}

// ChannelLister lists the uploads of a channel, newest first, up to maxResults.
type ChannelLister interface {
	ListChannelVideos(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*ChannelListing, error)
}

// ChannelListing is a channel's display name plus its raw video records,
// to be normalized with youtube.NormalizeVideos.
type ChannelListing struct {
	ChannelName string              `json:"channelName"`
	Records     []youtube.RawRecord `json:"records"`
}
