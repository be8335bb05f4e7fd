package youtube

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenSegments() []Segment {
	words := []string{"alpha", "bravo", "charlie", "delta", "Echo here", "foxtrot", "golf", "hotel", "india", "juliet"}
	segs := make([]Segment, len(words))
	for i, w := range words {
		segs[i] = Segment{Text: w, Start: float64(i * 10), Duration: 10}
	}
	return segs
}

func TestSearchTranscript_SingleMatch(t *testing.T) {
	matches := SearchTranscript(tenSegments(), "ECHO", 2)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, 4, m.Index)
	assert.Equal(t, "0:40", m.Timestamp)
	require.Len(t, m.Context, 5)
	assert.Equal(t, 2, m.Context[0].Index)
	assert.Equal(t, 6, m.Context[4].Index)
	for _, line := range m.Context {
		assert.Equal(t, line.Index == 4, line.Matched)
	}
}

func TestSearchTranscript_ClippedAtBounds(t *testing.T) {
	matches := SearchTranscript(tenSegments(), "alpha", 2)
	require.Len(t, matches, 1)
	require.Len(t, matches[0].Context, 3)
	assert.Equal(t, 0, matches[0].Context[0].Index)
	assert.True(t, matches[0].Context[0].Matched)

	matches = SearchTranscript(tenSegments(), "juliet", 3)
	require.Len(t, matches, 1)
	require.Len(t, matches[0].Context, 4)
	assert.Equal(t, 9, matches[0].Context[3].Index)
}

func TestSearchTranscript_OverlappingWindowsNotMerged(t *testing.T) {
	segs := []Segment{{Text: "x cat"}, {Text: "y"}, {Text: "z cat"}}
	matches := SearchTranscript(segs, "cat", 2)
	require.Len(t, matches, 2)
	assert.Len(t, matches[0].Context, 3)
	assert.Len(t, matches[1].Context, 3)
}

func TestSearchTranscript_NoMatchesAndEdgeInputs(t *testing.T) {
	assert.Empty(t, SearchTranscript(tenSegments(), "zulu", 2))
	assert.Empty(t, SearchTranscript(tenSegments(), "", 2))
	assert.Empty(t, SearchTranscript(nil, "alpha", 2))

	matches := SearchTranscript(tenSegments(), "delta", -1)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Context, 1)
}

func TestFormatSearchResults(t *testing.T) {
	out := FormatSearchResults("Test Video", "echo", SearchTranscript(tenSegments(), "echo", 1))
	assert.True(t, strings.HasPrefix(out, `# Search results for "echo"`))
	assert.Contains(t, out, "Video: Test Video")
	assert.Contains(t, out, "Found 1 matches")
	assert.Contains(t, out, "## Match 1 at 0:40")
	assert.Contains(t, out, "[0:30] delta\n**[0:40] Echo here**\n[0:50] foxtrot")
}

func TestFormatSearchResults_Zero(t *testing.T) {
	out := FormatSearchResults("", "nothing", nil)
	assert.Equal(t, "# Search results for \"nothing\"\nFound 0 matches", out)
}
