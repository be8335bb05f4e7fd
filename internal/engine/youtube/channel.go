package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// VideoFormat selects the rendering of a channel video listing.
type VideoFormat string

const (
	FormatDetailed VideoFormat = "detailed"
	FormatList     VideoFormat = "list"
	FormatIDsOnly  VideoFormat = "ids_only"
)

// ParseVideoFormat maps a user-supplied format name onto a VideoFormat.
// Unknown and empty names fall back to FormatDetailed.
func ParseVideoFormat(s string) VideoFormat {
	switch VideoFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatList:
		return FormatList
	case FormatIDsOnly, "ids", "idsonly":
		return FormatIDsOnly
	default:
		return FormatDetailed
	}
}

// VideoSummary is a normalized channel video. Empty PublishedAt / ViewCount mean absent.
type VideoSummary struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt,omitempty"`
	ViewCount   string `json:"viewCount,omitempty"`
}

// RawRecord is a backend video record as decoded from JSON. Its shape varies
// between backends and between YouTube layouts.
type RawRecord = map[string]any

// FieldStrategy reads one known shape of a field from a record.
type FieldStrategy func(RawRecord) (string, bool)

// ExtractField tries each strategy in order and returns the first non-empty
// value, or def when none applies.
func ExtractField(r RawRecord, strategies []FieldStrategy, def string) string {
	for _, s := range strategies {
		if v, ok := s(r); ok && v != "" {
			return v
		}
	}
	return def
}

// lookup walks nested objects along path.
func lookup(r RawRecord, path ...string) (any, bool) {
	var cur any = r
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Str reads a plain string (or JSON number) at path.
func Str(path ...string) FieldStrategy {
	return func(r RawRecord) (string, bool) {
		v, ok := lookup(r, path...)
		if !ok {
			return "", false
		}
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case int:
			return strconv.Itoa(t), true
		case int64:
			return strconv.FormatInt(t, 10), true
		case uint64:
			return strconv.FormatUint(t, 10), true
		}
		return "", false
	}
}

// Text reads {"text": "..."} at path.
func Text(path ...string) FieldStrategy {
	return Str(append(path, "text")...)
}

// SimpleText reads {"simpleText": "..."} at path.
func SimpleText(path ...string) FieldStrategy {
	return Str(append(path, "simpleText")...)
}

// Content reads {"content": "..."} at path (view-model layouts).
func Content(path ...string) FieldStrategy {
	return Str(append(path, "content")...)
}

// Runs concatenates {"runs": [{"text": ...}, ...]} at path.
func Runs(path ...string) FieldStrategy {
	return func(r RawRecord) (string, bool) {
		v, ok := lookup(r, append(path, "runs")...)
		if !ok {
			return "", false
		}
		runs, ok := v.([]any)
		if !ok {
			return "", false
		}
		var sb strings.Builder
		for _, run := range runs {
			if m, ok := run.(map[string]any); ok {
				if s, ok := m["text"].(string); ok {
					sb.WriteString(s)
				}
			}
		}
		return sb.String(), sb.Len() > 0
	}
}

// MetadataPart reads the text of lockupViewModel metadata row row, part part.
func MetadataPart(row, part int) FieldStrategy {
	return func(r RawRecord) (string, bool) {
		v, ok := lookup(r, "metadata", "lockupMetadataViewModel", "metadata", "contentMetadataViewModel", "metadataRows")
		if !ok {
			return "", false
		}
		rows, ok := v.([]any)
		if !ok || row >= len(rows) {
			return "", false
		}
		rowMap, ok := rows[row].(map[string]any)
		if !ok {
			return "", false
		}
		parts, ok := rowMap["metadataParts"].([]any)
		if !ok || part >= len(parts) {
			return "", false
		}
		partMap, ok := parts[part].(map[string]any)
		if !ok {
			return "", false
		}
		return Content("text")(partMap)
	}
}

// Field strategy lists, in priority order.
var (
	VideoIDStrategies = []FieldStrategy{
		Str("videoId"),
		Str("id"),
		Str("contentId"),
		Str("navigationEndpoint", "watchEndpoint", "videoId"),
	}
	TitleStrategies = []FieldStrategy{
		Str("title"),
		SimpleText("title"),
		Text("title"),
		Runs("title"),
		Content("metadata", "lockupMetadataViewModel", "title"),
		SimpleText("headline"),
		Runs("headline"),
	}
	PublishedStrategies = []FieldStrategy{
		Str("publishedAt"),
		Str("published"),
		SimpleText("publishedTimeText"),
		Text("publishedTimeText"),
		Runs("publishedTimeText"),
		Text("published"),
		MetadataPart(1, 1),
	}
	ViewCountStrategies = []FieldStrategy{
		Str("viewCount"),
		Text("viewCount"),
		SimpleText("viewCountText"),
		Text("viewCountText"),
		Runs("viewCountText"),
		SimpleText("shortViewCountText"),
		Str("short_view_count"),
		Text("short_view_count"),
		MetadataPart(1, 0),
	}
)

// NormalizeVideo extracts a VideoSummary from one raw record. ok is false
// when the record has no usable video ID.
func NormalizeVideo(r RawRecord) (VideoSummary, bool) {
	id := ExtractField(r, VideoIDStrategies, "")
	id, ok := ParseVideoID(id)
	if !ok {
		return VideoSummary{}, false
	}
	return VideoSummary{
		VideoID:     id,
		Title:       ExtractField(r, TitleStrategies, "Unknown"),
		PublishedAt: ExtractField(r, PublishedStrategies, ""),
		ViewCount:   ExtractField(r, ViewCountStrategies, ""),
	}, true
}

// NormalizeVideos normalizes records in order, dropping those without a video ID.
func NormalizeVideos(records []RawRecord) []VideoSummary {
	out := make([]VideoSummary, 0, len(records))
	for _, r := range records {
		if v, ok := NormalizeVideo(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// FormatChannelVideos renders a channel listing in the requested format.
func FormatChannelVideos(channelName string, videos []VideoSummary, format VideoFormat) string {
	if channelName == "" {
		channelName = "Unknown Channel"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Videos from %s\n", channelName)
	fmt.Fprintf(&sb, "Total videos: %d\n\n", len(videos))

	switch format {
	case FormatIDsOnly:
		for _, v := range videos {
			sb.WriteString(v.VideoID)
			sb.WriteByte('\n')
		}
	case FormatList:
		for i, v := range videos {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, v.VideoID)
		}
	default:
		for i, v := range videos {
			title := v.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(&sb, "## %d. %s\n", i+1, title)
			fmt.Fprintf(&sb, "- ID: %s\n", v.VideoID)
			fmt.Fprintf(&sb, "- URL: %s\n", WatchURL(v.VideoID))
			if v.PublishedAt != "" {
				fmt.Fprintf(&sb, "- Published: %s\n", v.PublishedAt)
			}
			if v.ViewCount != "" {
				fmt.Fprintf(&sb, "- Views: %s\n", v.ViewCount)
			}
			sb.WriteByte('\n')
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
