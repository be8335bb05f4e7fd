package youtube

import (
	"fmt"
	"strings"
)

// NoTranscript is returned by FormatTranscript when there is nothing to render.
const NoTranscript = "No transcript available"

// DefaultTranscriptTitle is the heading used when the fetch carried no title.
const DefaultTranscriptTitle = "YouTube Video Transcript"

// DefaultMaxItems is the page size used when the caller does not pick one.
const DefaultMaxItems = 50

// Segment is one timed unit of transcript text. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptResult is the payload of one successful transcript fetch.
// Segments are in chronological order and must not be mutated after the fetch.
type TranscriptResult struct {
	VideoID  string    `json:"videoId"`
	Title    string    `json:"title,omitempty"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"transcript"`
}

// PageOptions controls FormatTranscript.
// MaxItems == 0 disables pagination. PlainText drops the [m:ss] prefixes.
type PageOptions struct {
	// Page is 1-based. Values below 1 are treated as page 1 rather than
	// producing an empty window; pages past the end still render empty.
	Page      int
	MaxItems  int
	PlainText bool
}

// PageWindow maps a 1-based page onto [start, end) over total items.
// totalPages is 0 for an empty sequence. Out-of-range pages yield start == end.
func PageWindow(total, page, maxItems int) (start, end, totalPages int) {
	if maxItems <= 0 {
		return 0, total, 1
	}
	if page < 1 {
		page = 1
	}
	totalPages = (total + maxItems - 1) / maxItems
	start = min((page-1)*maxItems, total)
	end = min(page*maxItems, total)
	return start, end, totalPages
}

// FormatTranscript renders a transcript as a markdown text block, one
// "[m:ss] text" line per segment. A nil result renders as NoTranscript.
func FormatTranscript(result *TranscriptResult, opts PageOptions) string {
	if result == nil {
		return NoTranscript
	}

	title := result.Title
	if title == "" {
		title = DefaultTranscriptTitle
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if opts.MaxItems <= 0 {
		writeSegments(&sb, result.Segments, opts.PlainText)
		return strings.TrimRight(sb.String(), "\n")
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	total := len(result.Segments)
	start, end, totalPages := PageWindow(total, page, opts.MaxItems)

	fmt.Fprintf(&sb, "## Page %d of %d\n", page, totalPages)
	fmt.Fprintf(&sb, "Items: %d | Total: %d\n\n", end-start, total)
	writeSegments(&sb, result.Segments[start:end], opts.PlainText)

	if page < totalPages {
		fmt.Fprintf(&sb, "\n---\nNext page available (page %d)", page+1)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeSegments(sb *strings.Builder, segs []Segment, plain bool) {
	for _, seg := range segs {
		if plain {
			sb.WriteString(seg.Text)
		} else {
			fmt.Fprintf(sb, "[%s] %s", FormatTimestamp(seg.Start), seg.Text)
		}
		sb.WriteByte('\n')
	}
}
