package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/sources"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	"github.com/anatolykoptev/go_youtube/internal/ytserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	FetchFunc func(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error)
}

func (m *mockFetcher) FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	return m.FetchFunc(ctx, videoID, language)
}

type mockLister struct {
	ListFunc func(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*sources.ChannelListing, error)
}

func (m *mockLister) ListChannelVideos(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*sources.ChannelListing, error) {
	return m.ListFunc(ctx, ref, maxResults)
}

func sampleTranscript(_ context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	return &youtube.TranscriptResult{
		VideoID:  videoID,
		Title:    "Sample",
		Language: language,
		Segments: []youtube.Segment{
			{Text: "hello world", Start: 0, Duration: 2},
			{Text: "second line", Start: 2, Duration: 2},
			{Text: "third line", Start: 65, Duration: 2},
		},
	}, nil
}

func execute(t *testing.T, svc *ytserver.Service, args ...string) (string, error) {
	t.Helper()
	engine.Init(engine.Config{})
	t.Cleanup(func() { engine.Init(engine.Config{}) })

	root := NewRootCommand(svc)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTranscriptCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput []string
		notExpected    []string
		wantErr        bool
	}{
		{
			name:           "paginated",
			args:           []string{"transcript", "dQw4w9WgXcQ", "--max-items", "2"},
			expectedOutput: []string{"# Sample", "## Page 1 of 2", "[0:00] hello world", "Next page available (page 2)"},
		},
		{
			name:           "second page",
			args:           []string{"transcript", "https://youtu.be/dQw4w9WgXcQ", "--max-items", "2", "--page", "2"},
			expectedOutput: []string{"[1:05] third line"},
			notExpected:    []string{"hello world"},
		},
		{
			name:           "full text",
			args:           []string{"transcript", "dQw4w9WgXcQ", "--full", "--text"},
			expectedOutput: []string{"hello world\nsecond line\nthird line"},
			notExpected:    []string{"## Page", "[0:00]"},
		},
		{
			name:    "invalid video",
			args:    []string{"transcript", "not a video"},
			wantErr: true,
		},
		{
			name:    "missing argument",
			args:    []string{"transcript"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := ytserver.NewService(ytserver.WithTranscriptFetcher(&mockFetcher{FetchFunc: sampleTranscript}))
			out, err := execute(t, svc, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.expectedOutput {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestSearchCommand(t *testing.T) {
	svc := ytserver.NewService(ytserver.WithTranscriptFetcher(&mockFetcher{FetchFunc: sampleTranscript}))

	out, err := execute(t, svc, "search", "dQw4w9WgXcQ", "THIRD", "--context", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 matches")
	assert.Contains(t, out, "**[1:05] third line**")
	assert.Contains(t, out, "[0:02] second line")
	assert.NotContains(t, out, "hello world")
}

func TestChannelCommand(t *testing.T) {
	var gotMax int
	svc := ytserver.NewService(ytserver.WithChannelLister(&mockLister{
		ListFunc: func(_ context.Context, ref youtube.ChannelRef, maxResults int) (*sources.ChannelListing, error) {
			gotMax = maxResults
			if ref.String() != "@testchannel" {
				return nil, errors.New("channel not found: " + ref.String())
			}
			return &sources.ChannelListing{
				ChannelName: "Test Channel",
				Records:     []youtube.RawRecord{{"videoId": "aaaaaaaaaa1", "title": "One"}},
			}, nil
		},
	}))

	t.Run("writes output file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "videos.txt")
		out, err := execute(t, svc, "channel", "testchannel", "--max", "10", "--format", "ids_only", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Saved to "+path)
		assert.Equal(t, 10, gotMax)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "# Videos from Test Channel\nTotal videos: 1\n\naaaaaaaaaa1\n", string(data))
	})

	t.Run("backend error", func(t *testing.T) {
		_, err := execute(t, svc, "channel", "@someoneelse")
		require.Error(t, err)
		assert.Equal(t, "channel not found: @someoneelse", err.Error())
	})
}
