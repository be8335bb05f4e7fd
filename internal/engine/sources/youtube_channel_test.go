package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richItem(id, title string) string {
	return fmt.Sprintf(`{"richItemRenderer":{"content":{"videoRenderer":{"videoId":%q,"title":{"runs":[{"text":%q}]},"publishedTimeText":{"simpleText":"2 days ago"},"viewCountText":{"simpleText":"1,234 views"}}}}}`, id, title)
}

func continuationItem(token string) string {
	return fmt.Sprintf(`{"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":%q}}}}`, token)
}

func firstPage(items ...string) string {
	return `{"metadata":{"channelMetadataRenderer":{"title":"Test Channel"}},"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[` +
		`{"tabRenderer":{"title":"Home"}},` +
		`{"tabRenderer":{"title":"Videos","selected":true,"content":{"richGridRenderer":{"contents":[` + strings.Join(items, ",") + `]}}}}` +
		`]}}}`
}

func continuationPage(items ...string) string {
	return `{"onResponseReceivedActions":[{"appendContinuationItemsAction":{"continuationItems":[` + strings.Join(items, ",") + `]}}]}`
}

type fakeBrowse struct {
	srv          *httptest.Server
	resolveHits  atomic.Int32
	pages        map[string]string // continuation token ("" = first page) → body
	failOnToken  string
	lastBrowseID atomic.Value
}

func newFakeBrowse(t *testing.T) *fakeBrowse {
	f := &fakeBrowse{pages: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc(ytResolveURLPath, func(w http.ResponseWriter, r *http.Request) {
		f.resolveHits.Add(1)
		var req struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.URL != "https://www.youtube.com/@testchannel" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404}}`)
			return
		}
		_, _ = io.WriteString(w, `{"endpoint":{"browseEndpoint":{"browseId":"UCaaaaaaaaaaaaaaaaaaaaaa"}}}`)
	})
	mux.HandleFunc(ytBrowsePath, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BrowseID     string `json:"browseId"`
			Params       string `json:"params"`
			Continuation string `json:"continuation"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Continuation == "" {
			f.lastBrowseID.Store(req.BrowseID)
			assert.Equal(t, ytVideosTabParams, req.Params)
		}
		if req.Continuation != "" && req.Continuation == f.failOnToken {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, ok := f.pages[req.Continuation]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBrowse) lister() *InnerTubeChannels {
	return NewInnerTubeChannels(&InnerTube{BaseURL: f.srv.URL, HTTPClient: f.srv.Client()}, 0)
}

func TestInnerTubeChannels(t *testing.T) {
	ctx := context.Background()

	t.Run("handle with continuation", func(t *testing.T) {
		f := newFakeBrowse(t)
		f.pages[""] = firstPage(richItem("aaaaaaaaaa1", "One"), richItem("aaaaaaaaaa2", "Two"), continuationItem("tok1"))
		f.pages["tok1"] = continuationPage(richItem("aaaaaaaaaa3", "Three"), continuationItem("tok2"))
		f.pages["tok2"] = continuationPage(richItem("aaaaaaaaaa4", "Four"))

		l := f.lister()
		listing, err := l.ListChannelVideos(ctx, youtube.Handle("@testchannel"), 10)
		require.NoError(t, err)
		assert.Equal(t, "Test Channel", listing.ChannelName)
		assert.Equal(t, "UCaaaaaaaaaaaaaaaaaaaaaa", f.lastBrowseID.Load())

		videos := youtube.NormalizeVideos(listing.Records)
		require.Len(t, videos, 4)
		assert.Equal(t, []string{"aaaaaaaaaa1", "aaaaaaaaaa2", "aaaaaaaaaa3", "aaaaaaaaaa4"},
			[]string{videos[0].VideoID, videos[1].VideoID, videos[2].VideoID, videos[3].VideoID})
		assert.Equal(t, "One", videos[0].Title)
		assert.Equal(t, "2 days ago", videos[0].PublishedAt)
		assert.Equal(t, "1,234 views", videos[0].ViewCount)

		// Second call hits the resolved-handle cache.
		_, err = l.ListChannelVideos(ctx, youtube.Handle("@testchannel"), 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1), f.resolveHits.Load())
	})

	t.Run("max results truncates and stops paging", func(t *testing.T) {
		f := newFakeBrowse(t)
		f.pages[""] = firstPage(richItem("aaaaaaaaaa1", "One"), richItem("aaaaaaaaaa2", "Two"), continuationItem("tok1"))
		f.failOnToken = "tok1"

		listing, err := f.lister().ListChannelVideos(ctx, youtube.ChannelID("UCaaaaaaaaaaaaaaaaaaaaaa"), 1)
		require.NoError(t, err)
		require.Len(t, listing.Records, 1)
		assert.Zero(t, f.resolveHits.Load(), "channel IDs are not resolved")
	})

	t.Run("continuation failure returns partial listing", func(t *testing.T) {
		f := newFakeBrowse(t)
		f.pages[""] = firstPage(richItem("aaaaaaaaaa1", "One"), continuationItem("tok1"))
		f.failOnToken = "tok1"

		listing, err := f.lister().ListChannelVideos(ctx, youtube.ChannelID("UCaaaaaaaaaaaaaaaaaaaaaa"), 50)
		require.NoError(t, err)
		assert.Len(t, listing.Records, 1)
	})

	t.Run("unknown handle is fatal", func(t *testing.T) {
		f := newFakeBrowse(t)
		_, err := f.lister().ListChannelVideos(ctx, youtube.Handle("@nobody"), 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve @nobody")
	})

	t.Run("first page failure is fatal", func(t *testing.T) {
		f := newFakeBrowse(t)
		_, err := f.lister().ListChannelVideos(ctx, youtube.ChannelID("UCaaaaaaaaaaaaaaaaaaaaaa"), 10)
		require.Error(t, err)
	})
}

func TestCollectVideoRecords(t *testing.T) {
	var root any
	body := `{"contents":[
		{"richItemRenderer":{"content":{"lockupViewModel":{"contentId":"bbbbbbbbbb1","contentType":"LOCKUP_CONTENT_TYPE_VIDEO"}}}},
		{"richItemRenderer":{"content":{"lockupViewModel":{"contentId":"PLxxxxxxxxxxxxxxxxxx","contentType":"LOCKUP_CONTENT_TYPE_PLAYLIST"}}}},
		{"gridVideoRenderer":{"videoId":"bbbbbbbbbb2"}},
		{"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":"next"}}}}
	]}`
	require.NoError(t, json.Unmarshal([]byte(body), &root))

	records, token := collectVideoRecords(root)
	assert.Equal(t, "next", token)
	require.Len(t, records, 2)
	assert.Equal(t, "bbbbbbbbbb1", records[0]["contentId"])
	assert.Equal(t, "bbbbbbbbbb2", records[1]["videoId"])
}

func TestCollectVideoRecordsIgnoresSortChips(t *testing.T) {
	chip := func(label, token string) string {
		return fmt.Sprintf(`{"chipCloudChipRenderer":{"text":{"simpleText":%q},"navigationEndpoint":{"continuationCommand":{"token":%q}}}}`, label, token)
	}
	body := `{"richGridRenderer":{` +
		`"contents":[` + richItem("cccccccccc1", "Newest") + `,` + continuationItem("NEXT_PAGE") + `],` +
		`"header":{"feedFilterChipBarRenderer":{"contents":[` +
		chip("Latest", "CHIP_LATEST") + `,` + chip("Popular", "CHIP_POPULAR") + `,` + chip("Oldest", "CHIP_OLDEST") +
		`]}}}}`
	var root any
	require.NoError(t, json.Unmarshal([]byte(body), &root))

	records, token := collectVideoRecords(root)
	require.Len(t, records, 1)
	assert.Equal(t, "NEXT_PAGE", token)
}

func TestCollectVideoRecordsButtonContinuation(t *testing.T) {
	body := `{"contents":[{"continuationItemRenderer":{"button":{"buttonRenderer":{"command":{"continuationCommand":{"token":"more"}}}}}}]}`
	var root any
	require.NoError(t, json.Unmarshal([]byte(body), &root))

	_, token := collectVideoRecords(root)
	assert.Equal(t, "more", token)
}
