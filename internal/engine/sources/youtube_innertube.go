package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_youtube/internal/engine"
	"golang.org/x/net/html"
)

// YouTube InnerTube API: low-level constants, types, and HTTP primitives.
// Transcript logic lives in youtube_transcript.go, channel listing in youtube_channel.go.

const (
	ytBaseURL           = "https://www.youtube.com"
	ytPlayerPath        = "/youtubei/v1/player"
	ytNextPath          = "/youtubei/v1/next"
	ytGetTranscriptPath = "/youtubei/v1/get_transcript"
	ytResolveURLPath    = "/youtubei/v1/navigation/resolve_url"
	ytBrowsePath        = "/youtubei/v1/browse"
	ytWebVersion        = "2.20250222.10.00"
	ytAndroidVersion    = "20.10.38"
	ytAndroidUA         = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *videoDetails `json:"videoDetails"`
}

type videoDetails struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ChannelID string `json:"channelId"`
}

func (p *innertubePlayerResp) title() string {
	if p == nil || p.VideoDetails == nil {
		return ""
	}
	return p.VideoDetails.Title
}

func (p *innertubePlayerResp) tracks() []captionTrack {
	if p == nil || p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// --- WEB client types (/next, /get_transcript, /resolve_url, /browse) ---

type ytWebClientCtx struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	VisitorData   string `json:"visitorData,omitempty"`
	Hl            string `json:"hl,omitempty"`
	Gl            string `json:"gl,omitempty"`
}

type ytWebUser struct {
	EnableSafetyMode bool `json:"enableSafetyMode"`
}

type ytWebReqCtx struct {
	UseSsl bool `json:"useSsl"`
}

// InnerTube talks to YouTube's internal web API and watch pages.
// The zero value targets www.youtube.com with engine.Cfg's clients.
type InnerTube struct {
	BaseURL    string                // override for tests
	HTTPClient *http.Client          // nil = engine.Cfg.HTTPClient
	Browser    *engine.BrowserClient // nil = plain GET with backoff for watch pages
}

// NewInnerTube returns a client wired to the engine's configured HTTP and browser clients.
func NewInnerTube() *InnerTube {
	return &InnerTube{
		BaseURL:    ytBaseURL,
		HTTPClient: engine.Cfg.HTTPClient,
		Browser:    engine.Cfg.BrowserClient,
	}
}

func (it *InnerTube) url(path string) string {
	if it.BaseURL == "" {
		return ytBaseURL + path
	}
	return strings.TrimRight(it.BaseURL, "/") + path
}

func (it *InnerTube) client() *http.Client {
	if it.HTTPClient != nil {
		return it.HTTPClient
	}
	if engine.Cfg.HTTPClient != nil {
		return engine.Cfg.HTTPClient
	}
	return http.DefaultClient
}

// generateVisitorData creates a random 11-char visitor ID for InnerTube requests.
func generateVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))] //nolint:gosec // non-cryptographic use
	}
	return string(b)
}

// ytWebContext builds the standard WEB client context for InnerTube payloads.
func ytWebContext(visitorData string) map[string]any {
	return map[string]any{
		"client": ytWebClientCtx{
			ClientName:    "WEB",
			ClientVersion: ytWebVersion,
			VisitorData:   visitorData,
			Hl:            "en",
			Gl:            "US",
		},
		"user":    ytWebUser{EnableSafetyMode: false},
		"request": ytWebReqCtx{UseSsl: true},
	}
}

// postWEB POSTs to an InnerTube endpoint with WEB client headers.
// Uses engine.RetryHTTP for consistent retry/timeout behavior.
func (it *InnerTube) postWEB(ctx context.Context, path string, payload any, visitorData string) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := it.url(path)
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?prettyPrint=false", bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("X-Youtube-Client-Name", "1")
		req.Header.Set("X-Youtube-Client-Version", ytWebVersion)
		req.Header.Set("X-Goog-Visitor-Id", visitorData)
		req.Header.Set("Origin", "https://www.youtube.com")
		req.Header.Set("Referer", "https://www.youtube.com/")
		return it.client().Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("innertube WEB [%s]: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("innertube WEB [%s]: HTTP %d: %s", path, resp.StatusCode, engine.TruncateRunes(string(snippet), 120, "..."))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
}

// postWEBContext is postWEB with a fresh visitor ID and the WEB context merged into payload.
func (it *InnerTube) postWEBContext(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	visitorData := generateVisitorData()
	payload["context"] = ytWebContext(visitorData)
	return it.postWEB(ctx, path, payload, visitorData)
}

// androidPlayer calls /player as the ANDROID client.
// Works from non-blocked (residential/cloud) IP addresses.
func (it *InnerTube) androidPlayer(ctx context.Context, videoID string) (*innertubePlayerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := it.url(ytPlayerPath)
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return it.client().Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("android innertube: HTTP %d", resp.StatusCode)
	}

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &playerResp, nil
}

// watchPage downloads the watch page HTML, through the browser client when one is configured.
func (it *InnerTube) watchPage(ctx context.Context, videoID string) ([]byte, error) {
	watchURL := it.url("/watch?v=" + videoID)

	if it.Browser != nil {
		headers := engine.ChromeHeaders()
		headers["accept-language"] = "en-US,en;q=0.9"
		data, _, status, err := it.Browser.Do("GET", watchURL, headers, nil)
		if err != nil {
			return nil, fmt.Errorf("watch page: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("watch page: status %d", status)
		}
		return data, nil
	}

	body, err := engine.FetchWithRetry(ctx, watchURL, true)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	return body, nil
}

// watchPlayer scrapes ytInitialPlayerResponse from the watch page.
func (it *InnerTube) watchPlayer(ctx context.Context, videoID string) (*innertubePlayerResp, error) {
	body, err := it.watchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return parseWatchPage(body)
}

// parseWatchPage extracts the player response from watch page HTML. When the
// player response lacks videoDetails the title falls back to the page metadata.
func parseWatchPage(body []byte) (*innertubePlayerResp, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var jsonData []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, ytInitialPlayerResponseMarker)
		if idx < 0 {
			return true
		}
		jsonData = extractJSON([]byte(text[idx+len(ytInitialPlayerResponseMarker):]))
		return jsonData == nil
	})
	if jsonData == nil {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}

	if playerResp.title() == "" {
		title, _ := doc.Find(`meta[name="title"]`).Attr("content")
		if title == "" {
			title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		}
		if title != "" {
			if playerResp.VideoDetails == nil {
				playerResp.VideoDetails = &videoDetails{}
			}
			playerResp.VideoDetails.Title = title
		}
	}
	return &playerResp, nil
}

// VideoTitle returns the video title from the watch page, falling back to the ANDROID player.
func (it *InnerTube) VideoTitle(ctx context.Context, videoID string) (string, error) {
	if p, err := it.watchPlayer(ctx, videoID); err == nil && p.title() != "" {
		return p.title(), nil
	}
	p, err := it.androidPlayer(ctx, videoID)
	if err != nil {
		return "", err
	}
	if p.title() == "" {
		return "", errors.New("no title in player response")
	}
	return p.title(), nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
