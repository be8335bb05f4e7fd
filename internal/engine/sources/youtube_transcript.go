package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
)

// YouTube transcript fetching.
// Primary:  watch page ytInitialPlayerResponse → captionTracks → timedtext XML
// Fallback: ANDROID InnerTube /player → captionTracks       (works from non-blocked IPs)
// Fallback: /next → engagement panel → /get_transcript       (default track only)

// InnerTubeTranscripts fetches timed transcripts straight from YouTube.
type InnerTubeTranscripts struct {
	api       *InnerTube
	fallbacks []string
}

// NewInnerTubeTranscripts returns a fetcher that tries languages in the order
// requested, then fallbacks.
func NewInnerTubeTranscripts(api *InnerTube, fallbacks []string) *InnerTubeTranscripts {
	return &InnerTubeTranscripts{api: api, fallbacks: fallbacks}
}

// FetchTranscript implements TranscriptFetcher.
func (t *InnerTubeTranscripts) FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	engine.IncrTranscriptFetch()
	langs := languagePrefs(language, t.fallbacks)

	res, pageErr := t.viaPlayer(ctx, videoID, langs, t.api.watchPlayer)
	if pageErr == nil {
		return res, nil
	}
	slog.Warn("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("error", pageErr))

	res, playerErr := t.viaPlayer(ctx, videoID, langs, t.api.androidPlayer)
	if playerErr == nil {
		return res, nil
	}
	slog.Warn("youtube: player failed, trying engagement panel",
		slog.String("id", videoID), slog.Any("error", playerErr))

	res, panelErr := t.viaEngagementPanel(ctx, videoID, language)
	if panelErr == nil {
		return res, nil
	}

	engine.IncrTranscriptFetchError()
	return nil, fmt.Errorf("no transcript for %s: %w", videoID, errors.Join(pageErr, playerErr, panelErr))
}

// languagePrefs puts the requested language first, then fallbacks, without duplicates.
func languagePrefs(language string, fallbacks []string) []string {
	seen := make(map[string]bool, len(fallbacks)+1)
	langs := make([]string, 0, len(fallbacks)+1)
	for _, l := range append([]string{language}, fallbacks...) {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		langs = append(langs, l)
	}
	return langs
}

type playerFunc func(ctx context.Context, videoID string) (*innertubePlayerResp, error)

func (t *InnerTubeTranscripts) viaPlayer(ctx context.Context, videoID string, langs []string, player playerFunc) (*youtube.TranscriptResult, error) {
	p, err := player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	tracks := p.tracks()
	if len(tracks) == 0 {
		if p.PlayabilityStatus != nil && p.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", p.PlayabilityStatus.Reason)
		}
		return nil, errors.New("no caption tracks")
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}
	segments, err := fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, errors.New("empty caption track")
	}
	return &youtube.TranscriptResult{
		VideoID:  videoID,
		Title:    p.title(),
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken; those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// Per language: manual track first, then auto-generated.
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// --- Timedtext XML types ---

// ytTimedText covers both caption formats: srv1 (<transcript><text start dur>)
// and srv3 (<timedtext><body><p t d>, milliseconds).
type ytTimedText struct {
	Lines []ytLine `xml:"text"`
	Paras []ytPara `xml:"body>p"`
}

type ytLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",innerxml"`
}

type ytPara struct {
	T    int64  `xml:"t,attr"`
	D    int64  `xml:"d,attr"`
	Text string `xml:",innerxml"`
}

// fetchTimedText fetches a caption track and decodes it into ordered segments.
func fetchTimedText(ctx context.Context, baseURL string) ([]youtube.Segment, error) {
	body, err := engine.FetchWithRetry(ctx, baseURL, false)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]youtube.Segment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]youtube.Segment, 0, len(tt.Lines)+len(tt.Paras))
	for _, line := range tt.Lines {
		if text := engine.CleanCaption(line.Text); text != "" {
			segments = append(segments, youtube.Segment{Text: text, Start: line.Start, Duration: line.Dur})
		}
	}
	for _, p := range tt.Paras {
		if text := engine.CleanCaption(p.Text); text != "" {
			segments = append(segments, youtube.Segment{
				Text:     text,
				Start:    float64(p.T) / 1000,
				Duration: float64(p.D) / 1000,
			})
		}
	}
	return segments, nil
}

// --- /get_transcript response ---

type ytGetTranscriptResp struct {
	Actions []struct {
		UpdateEngagementPanelAction *struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []struct {
										TranscriptSegmentRenderer *struct {
											StartMs string `json:"startMs"`
											EndMs   string `json:"endMs"`
											Snippet struct {
												Runs []struct {
													Text string `json:"text"`
												} `json:"runs"`
											} `json:"snippet"`
										} `json:"transcriptSegmentRenderer"`
									} `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments converts /get_transcript segments to timed segments.
func parseTranscriptSegments(resp ytGetTranscriptResp) []youtube.Segment {
	var segments []youtube.Segment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				sb.WriteString(run.Text)
			}
			text := strings.TrimSpace(sb.String())
			if text == "" {
				continue
			}
			startMs, _ := strconv.ParseInt(r.StartMs, 10, 64)
			endMs, _ := strconv.ParseInt(r.EndMs, 10, 64)
			segments = append(segments, youtube.Segment{
				Text:     text,
				Start:    float64(startMs) / 1000,
				Duration: float64(max(endMs-startMs, 0)) / 1000,
			})
		}
	}
	return segments
}

// viaEngagementPanel fetches the default transcript via:
//  1. POST /next → engagementPanels containing the transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED,
// but it cannot choose the caption language.
func (t *InnerTubeTranscripts) viaEngagementPanel(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	visitorData := generateVisitorData()

	nextData, err := t.api.postWEB(ctx, ytNextPath, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	transcriptData, err := t.api.postWEB(ctx, ytGetTranscriptPath, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": ytWebClientCtx{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	segments := parseTranscriptSegments(transcriptResp)
	if len(segments) == 0 {
		return nil, errors.New("empty transcript segments")
	}
	return &youtube.TranscriptResult{
		VideoID:  videoID,
		Title:    nextVideoTitle(nextData),
		Language: language,
		Segments: segments,
	}, nil
}

// nextTitleStrategies reads the video title from a /next response.
var nextTitleStrategies = []youtube.FieldStrategy{
	func(r youtube.RawRecord) (string, bool) {
		v, ok := r["contents"].(map[string]any)
		if !ok {
			return "", false
		}
		twoCol, ok := v["twoColumnWatchNextResults"].(map[string]any)
		if !ok {
			return "", false
		}
		results, ok := twoCol["results"].(map[string]any)
		if !ok {
			return "", false
		}
		inner, ok := results["results"].(map[string]any)
		if !ok {
			return "", false
		}
		contents, ok := inner["contents"].([]any)
		if !ok {
			return "", false
		}
		for _, c := range contents {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if title, ok := youtube.Runs("videoPrimaryInfoRenderer", "title")(m); ok {
				return title, true
			}
		}
		return "", false
	},
}

func nextVideoTitle(data []byte) string {
	var r youtube.RawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return ""
	}
	return youtube.ExtractField(r, nextTitleStrategies, "")
}
