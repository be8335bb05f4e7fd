package youtube

import (
	"fmt"
	"strings"
)

// DefaultContextSize is the number of segments shown on each side of a match.
const DefaultContextSize = 2

// ContextLine is one segment inside a match window.
type ContextLine struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Matched   bool   `json:"matched"`
}

// Match is a segment that contains the query, with its surrounding window.
type Match struct {
	Index     int           `json:"index"`
	Timestamp string        `json:"timestamp"`
	Context   []ContextLine `json:"context"`
}

// SearchTranscript finds every segment whose text contains query,
// case-insensitively, in transcript order. Each match carries the inclusive
// window [i-contextSize, i+contextSize] clipped to the transcript bounds.
// Overlapping windows are kept as-is, so a segment may appear in several matches.
// An empty query matches nothing.
func SearchTranscript(segments []Segment, query string, contextSize int) []Match {
	needle := strings.ToLower(query)
	if needle == "" {
		return nil
	}
	if contextSize < 0 {
		contextSize = 0
	}

	var matches []Match
	for i, seg := range segments {
		if !strings.Contains(strings.ToLower(seg.Text), needle) {
			continue
		}
		lo := max(0, i-contextSize)
		hi := min(len(segments)-1, i+contextSize)
		window := make([]ContextLine, 0, hi-lo+1)
		for j := lo; j <= hi; j++ {
			window = append(window, ContextLine{
				Index:     j,
				Timestamp: FormatTimestamp(segments[j].Start),
				Text:      segments[j].Text,
				Matched:   j == i,
			})
		}
		matches = append(matches, Match{
			Index:     i,
			Timestamp: FormatTimestamp(seg.Start),
			Context:   window,
		})
	}
	return matches
}

// FormatSearchResults renders matches as a markdown report. The matched line
// of each window is bold; context lines are plain.
func FormatSearchResults(title, query string, matches []Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search results for %q\n", query)
	if title != "" {
		fmt.Fprintf(&sb, "Video: %s\n", title)
	}
	fmt.Fprintf(&sb, "Found %d matches\n", len(matches))

	for n, m := range matches {
		fmt.Fprintf(&sb, "\n## Match %d at %s\n", n+1, m.Timestamp)
		for _, line := range m.Context {
			if line.Matched {
				fmt.Fprintf(&sb, "**[%s] %s**\n", line.Timestamp, line.Text)
			} else {
				fmt.Fprintf(&sb, "[%s] %s\n", line.Timestamp, line.Text)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
