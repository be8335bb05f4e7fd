package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const srv1Captions = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0.5" dur="2.1">never gonna give you up</text>` +
	`<text start="2.6" dur="1.9">it&amp;#39;s a &lt;b&gt;test&lt;/b&gt;</text>` +
	`<text start="4.5" dur="1">   </text>` +
	`<text start="65.25" dur="3">final line</text>` +
	`</transcript>`

func TestParseTimedText(t *testing.T) {
	t.Run("srv1", func(t *testing.T) {
		segs, err := parseTimedText([]byte(srv1Captions))
		require.NoError(t, err)
		require.Len(t, segs, 3, "blank lines are dropped")
		assert.Equal(t, "never gonna give you up", segs[0].Text)
		assert.InDelta(t, 0.5, segs[0].Start, 1e-9)
		assert.InDelta(t, 2.1, segs[0].Duration, 1e-9)
		assert.Equal(t, "it's a test", segs[1].Text)
		assert.InDelta(t, 65.25, segs[2].Start, 1e-9)
	})

	t.Run("srv3", func(t *testing.T) {
		body := `<timedtext format="3"><body>` +
			`<p t="1200" d="2500"><s>hello</s><s t="400"> world</s></p>` +
			`<p t="3700" d="1000">second</p>` +
			`</body></timedtext>`
		segs, err := parseTimedText([]byte(body))
		require.NoError(t, err)
		require.Len(t, segs, 2)
		assert.Equal(t, "hello world", segs[0].Text)
		assert.InDelta(t, 1.2, segs[0].Start, 1e-9)
		assert.InDelta(t, 2.5, segs[0].Duration, 1e-9)
		assert.Equal(t, "second", segs[1].Text)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseTimedText([]byte("<transcript><text"))
		assert.Error(t, err)
	})
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u-de-asr", LanguageCode: "de", Kind: "asr"},
		{BaseURL: "u-en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "u-en", LanguageCode: "en"},
		{BaseURL: "u-fr&exp=xpe", LanguageCode: "fr"},
		{BaseURL: "u-es", LanguageCode: "es"},
	}

	tests := []struct {
		name  string
		langs []string
		want  string
		ok    bool
	}{
		{"manual beats asr", []string{"en"}, "u-en", true},
		{"asr when only asr", []string{"de"}, "u-de-asr", true},
		{"fallback language", []string{"ja", "es"}, "u-es", true},
		{"potoken track skipped, english used", []string{"fr"}, "u-en-asr", true},
		{"no preference falls to english", nil, "u-en-asr", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tracks, tt.langs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.BaseURL)
		})
	}

	t.Run("first usable when no english", func(t *testing.T) {
		got, ok := pickBestTrack([]captionTrack{{BaseURL: "a", LanguageCode: "ko"}, {BaseURL: "b", LanguageCode: "ja"}}, []string{"fr"})
		require.True(t, ok)
		assert.Equal(t, "a", got.BaseURL)
	})

	t.Run("all potoken", func(t *testing.T) {
		_, ok := pickBestTrack([]captionTrack{{BaseURL: "x&exp=xpe", LanguageCode: "en"}}, []string{"en"})
		assert.False(t, ok)
	})
}

func TestLanguagePrefs(t *testing.T) {
	assert.Equal(t, []string{"de", "en"}, languagePrefs("de", []string{"en", "de"}))
	assert.Equal(t, []string{"en"}, languagePrefs("", []string{"en"}))
	assert.Empty(t, languagePrefs("", nil))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", `{"a":1};var x`, `{"a":1}`},
		{"nested", `{"a":{"b":[{}]}} trailing`, `{"a":{"b":[{}]}}`},
		{"brace in string", `{"a":"}{"}x`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"say \"}\""}x`, `{"a":"say \"}\""}`},
		{"escaped backslash", `{"a":"c:\\"}x`, `{"a":"c:\\"}`},
		{"not object", `[1,2]`, ``},
		{"unterminated", `{"a":1`, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(extractJSON([]byte(tt.in))))
		})
	}
}

func watchHTML(playerJSON string) string {
	return `<!DOCTYPE html><html><head>
<meta name="title" content="Meta Title">
<script>var foo = 1;</script>
<script>var ytInitialPlayerResponse = ` + playerJSON + `;var meta = {};</script>
</head><body></body></html>`
}

func TestParseWatchPage(t *testing.T) {
	t.Run("player response with details", func(t *testing.T) {
		p, err := parseWatchPage([]byte(watchHTML(`{"videoDetails":{"videoId":"dQw4w9WgXcQ","title":"Rick"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"u","languageCode":"en"}]}}}`)))
		require.NoError(t, err)
		assert.Equal(t, "Rick", p.title())
		require.Len(t, p.tracks(), 1)
	})

	t.Run("title from meta", func(t *testing.T) {
		p, err := parseWatchPage([]byte(watchHTML(`{"playabilityStatus":{"status":"OK"}}`)))
		require.NoError(t, err)
		assert.Equal(t, "Meta Title", p.title())
		assert.Empty(t, p.tracks())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := parseWatchPage([]byte(`<html><script>var x = 1;</script></html>`))
		assert.ErrorContains(t, err, "ytInitialPlayerResponse not found")
	})
}

// fakeYouTube serves a watch page, the ANDROID player and a caption track.
type fakeYouTube struct {
	srv           *httptest.Server
	watchPlayer   string // JSON; empty = watch page without player response
	androidPlayer string // JSON; empty = 400
	captions      string
	watchHits     int
	playerHits    int
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	f := &fakeYouTube{captions: srv1Captions}
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.watchHits++
		if f.watchPlayer == "" {
			_, _ = io.WriteString(w, `<html><script>var x = 1;</script></html>`)
			return
		}
		_, _ = io.WriteString(w, watchHTML(f.expand(f.watchPlayer)))
	})
	mux.HandleFunc(ytPlayerPath, func(w http.ResponseWriter, r *http.Request) {
		f.playerHits++
		assert.Equal(t, http.MethodPost, r.Method)
		if f.androidPlayer == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, f.expand(f.androidPlayer))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, f.captions)
	})
	mux.HandleFunc(ytNextPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// expand replaces {{srv}} with the server URL so caption base URLs point back here.
func (f *fakeYouTube) expand(s string) string {
	return strings.ReplaceAll(s, "{{srv}}", f.srv.URL)
}

func (f *fakeYouTube) api() *InnerTube {
	return &InnerTube{BaseURL: f.srv.URL, HTTPClient: f.srv.Client()}
}

func playerWithTracks(title string, tracks ...string) string {
	return fmt.Sprintf(`{"videoDetails":{"title":%q},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[%s]}}}`,
		title, strings.Join(tracks, ","))
}

func TestInnerTubeTranscripts(t *testing.T) {
	ctx := context.Background()

	t.Run("watch page path", func(t *testing.T) {
		f := newFakeYouTube(t)
		f.watchPlayer = playerWithTracks("Never Gonna",
			`{"baseUrl":"{{srv}}/api/timedtext?lang=de","languageCode":"de"}`,
			`{"baseUrl":"{{srv}}/api/timedtext?lang=en","languageCode":"en","kind":"asr"}`)

		res, err := NewInnerTubeTranscripts(f.api(), []string{"en"}).FetchTranscript(ctx, "dQw4w9WgXcQ", "fr")
		require.NoError(t, err)
		assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
		assert.Equal(t, "Never Gonna", res.Title)
		assert.Equal(t, "en", res.Language, "fallback language chosen")
		require.Len(t, res.Segments, 3)
		assert.Equal(t, "never gonna give you up", res.Segments[0].Text)
		assert.Zero(t, f.playerHits)
	})

	t.Run("falls back to android player", func(t *testing.T) {
		f := newFakeYouTube(t)
		f.androidPlayer = playerWithTracks("From Player", `{"baseUrl":"{{srv}}/api/timedtext","languageCode":"en"}`)

		res, err := NewInnerTubeTranscripts(f.api(), nil).FetchTranscript(ctx, "dQw4w9WgXcQ", "en")
		require.NoError(t, err)
		assert.Equal(t, "From Player", res.Title)
		assert.Equal(t, 1, f.watchHits)
		assert.Equal(t, 1, f.playerHits)
	})

	t.Run("all paths fail", func(t *testing.T) {
		f := newFakeYouTube(t)
		f.androidPlayer = `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm you're not a bot"}}`

		_, err := NewInnerTubeTranscripts(f.api(), nil).FetchTranscript(ctx, "dQw4w9WgXcQ", "en")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no transcript for dQw4w9WgXcQ")
		assert.Contains(t, err.Error(), "Sign in to confirm")
		assert.Contains(t, err.Error(), "/next")
	})

	t.Run("video title", func(t *testing.T) {
		f := newFakeYouTube(t)
		f.watchPlayer = playerWithTracks("Watch Title")
		title, err := f.api().VideoTitle(ctx, "dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.Equal(t, "Watch Title", title)
	})
}

func TestParseTranscriptSegments(t *testing.T) {
	data := []byte(`{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
		{"transcriptSegmentRenderer":{"startMs":"0","endMs":"1500","snippet":{"runs":[{"text":"hello "},{"text":"there"}]}}},
		{"transcriptSectionHeaderRenderer":{}},
		{"transcriptSegmentRenderer":{"startMs":"61000","endMs":"62000","snippet":{"runs":[{"text":"later"}]}}}
	]}}}}}}}}]}`)

	var resp ytGetTranscriptResp
	require.NoError(t, json.Unmarshal(data, &resp))
	segs := parseTranscriptSegments(resp)
	require.Len(t, segs, 2)
	assert.Equal(t, "hello there", segs[0].Text)
	assert.InDelta(t, 1.5, segs[0].Duration, 1e-9)
	assert.InDelta(t, 61.0, segs[1].Start, 1e-9)
}

func TestExtractTranscriptToken(t *testing.T) {
	tok, err := extractTranscriptToken([]byte(`{"x":{"getTranscriptEndpoint":{"params":"Cgt%3D%3D"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "Cgt==", tok)

	_, err = extractTranscriptToken([]byte(`{}`))
	assert.Error(t, err)
}
