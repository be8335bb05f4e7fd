package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ytVideosTabParams selects the "Videos" tab of a channel in /browse.
const ytVideosTabParams = "EgZ2aWRlb3PyBgQKAjoA"

const resolvedHandlesSize = 512

// InnerTubeChannels lists channel uploads through InnerTube /browse,
// following continuation tokens until maxResults records are collected.
type InnerTubeChannels struct {
	api      *InnerTube
	resolved *lru.Cache[string, string] // handle → browse ID
	limiter  *rate.Limiter
}

// NewInnerTubeChannels creates a lister whose continuation calls are limited to rps
// requests per second. rps <= 0 disables the limit.
func NewInnerTubeChannels(api *InnerTube, rps float64) *InnerTubeChannels {
	resolved, _ := lru.New[string, string](resolvedHandlesSize)
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &InnerTubeChannels{
		api:      api,
		resolved: resolved,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// ListChannelVideos implements ChannelLister. Resolution and first-page failures
// are returned; a failing continuation ends the walk with the records so far.
func (c *InnerTubeChannels) ListChannelVideos(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*ChannelListing, error) {
	engine.IncrChannelFetch()

	browseID, err := c.browseID(ctx, ref)
	if err != nil {
		return nil, err
	}

	first, err := c.browse(ctx, map[string]any{"browseId": browseID, "params": ytVideosTabParams})
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", ref, err)
	}

	listing := &ChannelListing{ChannelName: youtube.ExtractField(first, channelNameStrategies, "")}
	records, token := collectVideoRecords(first)
	listing.Records = records

	for maxResults > 0 && len(listing.Records) < maxResults && token != "" {
		if err := c.limiter.Wait(ctx); err != nil {
			slog.Warn("youtube: continuation aborted", slog.String("channel", ref.String()), slog.Any("error", err))
			break
		}
		engine.IncrChannelContinuation()
		page, err := c.browse(ctx, map[string]any{"continuation": token})
		if err != nil {
			engine.IncrChannelContinuationFailure()
			slog.Warn("youtube: continuation failed, returning partial listing",
				slog.String("channel", ref.String()), slog.Int("records", len(listing.Records)), slog.Any("error", err))
			break
		}
		more, next := collectVideoRecords(page)
		if len(more) == 0 {
			break
		}
		listing.Records = append(listing.Records, more...)
		token = next
	}

	if maxResults > 0 && len(listing.Records) > maxResults {
		listing.Records = listing.Records[:maxResults]
	}
	return listing, nil
}

func (c *InnerTubeChannels) browseID(ctx context.Context, ref youtube.ChannelRef) (string, error) {
	switch r := ref.(type) {
	case youtube.ChannelID:
		return string(r), nil
	case youtube.Handle:
		if id, ok := c.resolved.Get(string(r)); ok {
			return id, nil
		}
		id, err := c.resolveHandle(ctx, r)
		if err != nil {
			return "", err
		}
		c.resolved.Add(string(r), id)
		return id, nil
	default:
		return "", youtube.ErrInvalidChannelRef
	}
}

// resolveHandle maps @handle to its UC… browse ID via /navigation/resolve_url.
func (c *InnerTubeChannels) resolveHandle(ctx context.Context, h youtube.Handle) (string, error) {
	data, err := c.api.postWEBContext(ctx, ytResolveURLPath, map[string]any{"url": h.URL()})
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", h, err)
	}
	var resp struct {
		Endpoint struct {
			BrowseEndpoint struct {
				BrowseID string `json:"browseId"`
			} `json:"browseEndpoint"`
		} `json:"endpoint"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("resolve %s: %w", h, err)
	}
	if resp.Endpoint.BrowseEndpoint.BrowseID == "" {
		return "", fmt.Errorf("channel not found: %s", h)
	}
	return resp.Endpoint.BrowseEndpoint.BrowseID, nil
}

func (c *InnerTubeChannels) browse(ctx context.Context, payload map[string]any) (youtube.RawRecord, error) {
	data, err := c.api.postWEBContext(ctx, ytBrowsePath, payload)
	if err != nil {
		return nil, err
	}
	var out youtube.RawRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode browse: %w", err)
	}
	if out == nil {
		return nil, errors.New("empty browse response")
	}
	return out, nil
}

var channelNameStrategies = []youtube.FieldStrategy{
	youtube.Str("metadata", "channelMetadataRenderer", "title"),
	youtube.Str("header", "c4TabbedHeaderRenderer", "title"),
	youtube.Str("header", "pageHeaderRenderer", "pageTitle"),
	youtube.Str("microformat", "microformatDataRenderer", "title"),
}

// videoRendererKeys are the wrappers that hold one video record.
var videoRendererKeys = []string{"videoRenderer", "gridVideoRenderer", "reelItemRenderer", "lockupViewModel"}

// continuationTokenStrategies read the next-page token from a continuationItemRenderer.
var continuationTokenStrategies = []youtube.FieldStrategy{
	youtube.Str("continuationEndpoint", "continuationCommand", "token"),
	youtube.Str("button", "buttonRenderer", "command", "continuationCommand", "token"),
}

// collectVideoRecords walks a /browse response in document order and returns
// every video record plus the next-page token. Only continuationItemRenderer
// carries that token; sort chips in the grid header hold continuation commands
// for other feeds and are ignored.
// Object keys are visited sorted so the order is deterministic.
func collectVideoRecords(root any) (records []youtube.RawRecord, token string) {
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			for _, key := range videoRendererKeys {
				if rec, ok := t[key].(map[string]any); ok {
					if key == "lockupViewModel" && !isVideoLockup(rec) {
						return
					}
					records = append(records, rec)
					return
				}
			}
			if item, ok := t["continuationItemRenderer"].(map[string]any); ok {
				if tok := youtube.ExtractField(item, continuationTokenStrategies, ""); tok != "" {
					token = tok
				}
				return
			}
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}
	walk(root)
	return records, token
}

func isVideoLockup(rec map[string]any) bool {
	ct, ok := rec["contentType"].(string)
	return !ok || ct == "LOCKUP_CONTENT_TYPE_VIDEO"
}
