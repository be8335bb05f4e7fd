package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// dataAPIPageSize is the Data API maximum for playlistItems and videos lists.
const dataAPIPageSize = 50

// DataAPIChannels lists channel uploads through the YouTube Data API v3.
type DataAPIChannels struct {
	svc *ytapi.Service
}

// NewDataAPIChannels creates a Data API lister authenticated with apiKey.
// Extra options are appended, e.g. option.WithEndpoint in tests.
func NewDataAPIChannels(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPIChannels, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube data API: %w", err)
	}
	return &DataAPIChannels{svc: svc}, nil
}

// ListChannelVideos implements ChannelLister. The channel lookup and first
// uploads page are fatal on error; later pages and view counts are best-effort.
func (d *DataAPIChannels) ListChannelVideos(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*ChannelListing, error) {
	engine.IncrChannelFetch()

	call := d.svc.Channels.List([]string{"snippet", "contentDetails"}).Context(ctx)
	switch r := ref.(type) {
	case youtube.Handle:
		call = call.ForHandle(string(r))
	case youtube.ChannelID:
		call = call.Id(string(r))
	default:
		return nil, youtube.ErrInvalidChannelRef
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube data API channels: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel not found: %s", ref)
	}
	ch := resp.Items[0]

	listing := &ChannelListing{}
	if ch.Snippet != nil {
		listing.ChannelName = ch.Snippet.Title
	}
	if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil || ch.ContentDetails.RelatedPlaylists.Uploads == "" {
		return listing, nil
	}
	uploads := ch.ContentDetails.RelatedPlaylists.Uploads

	pageToken := ""
	for {
		size := dataAPIPageSize
		if maxResults > 0 {
			size = min(dataAPIPageSize, maxResults-len(listing.Records))
		}
		page, err := d.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(uploads).
			MaxResults(int64(size)).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			if pageToken == "" {
				return nil, fmt.Errorf("youtube data API uploads: %w", err)
			}
			engine.IncrChannelContinuationFailure()
			slog.Warn("youtube: uploads page failed, returning partial listing",
				slog.String("channel", ref.String()), slog.Int("records", len(listing.Records)), slog.Any("error", err))
			break
		}
		if pageToken != "" {
			engine.IncrChannelContinuation()
		}
		for _, item := range page.Items {
			if rec := playlistItemRecord(item); rec != nil {
				listing.Records = append(listing.Records, rec)
			}
		}
		pageToken = page.NextPageToken
		if pageToken == "" || len(page.Items) == 0 || (maxResults > 0 && len(listing.Records) >= maxResults) {
			break
		}
	}

	if maxResults > 0 && len(listing.Records) > maxResults {
		listing.Records = listing.Records[:maxResults]
	}
	d.addViewCounts(ctx, listing.Records)
	return listing, nil
}

func playlistItemRecord(item *ytapi.PlaylistItem) youtube.RawRecord {
	if item == nil {
		return nil
	}
	rec := youtube.RawRecord{}
	if item.ContentDetails != nil {
		rec["videoId"] = item.ContentDetails.VideoId
		if item.ContentDetails.VideoPublishedAt != "" {
			rec["publishedAt"] = item.ContentDetails.VideoPublishedAt
		}
	}
	if item.Snippet != nil {
		rec["title"] = item.Snippet.Title
		if _, ok := rec["videoId"]; !ok && item.Snippet.ResourceId != nil {
			rec["videoId"] = item.Snippet.ResourceId.VideoId
		}
		if _, ok := rec["publishedAt"]; !ok && item.Snippet.PublishedAt != "" {
			rec["publishedAt"] = item.Snippet.PublishedAt
		}
	}
	if id, _ := rec["videoId"].(string); id == "" {
		return nil
	}
	return rec
}

// addViewCounts fills "viewCount" on records in batches of 50 IDs.
func (d *DataAPIChannels) addViewCounts(ctx context.Context, records []youtube.RawRecord) {
	byID := make(map[string]youtube.RawRecord, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		id, _ := rec["videoId"].(string)
		byID[id] = rec
		ids = append(ids, id)
	}

	for start := 0; start < len(ids); start += dataAPIPageSize {
		batch := ids[start:min(start+dataAPIPageSize, len(ids))]
		resp, err := d.svc.Videos.List([]string{"statistics"}).Id(batch...).Context(ctx).Do()
		if err != nil {
			slog.Warn("youtube: view counts unavailable", slog.Any("error", err))
			return
		}
		for _, v := range resp.Items {
			if v.Statistics == nil {
				continue
			}
			if rec, ok := byID[v.Id]; ok {
				rec["viewCount"] = strconv.FormatUint(v.Statistics.ViewCount, 10)
			}
		}
	}
}
