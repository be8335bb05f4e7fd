package ytserver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/archive"
	"github.com/anatolykoptev/go_youtube/internal/engine/sources"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	"github.com/anatolykoptev/go_youtube/internal/toolutil"
)

// DefaultMaxResults is the channel listing size when maxResults is omitted.
const DefaultMaxResults = 50

var errQueryRequired = errors.New("query is required")

// ErrServiceClosed is returned by operations on a Service after Close.
var ErrServiceClosed = errors.New("service closed")

// Service owns the YouTube backends and renders tool output. Backends are
// built on first use and reused for the life of the Service. A closed
// Service rejects every operation with ErrServiceClosed.
type Service struct {
	transcripts func() (sources.TranscriptFetcher, error)
	channels    func() (sources.ChannelLister, error)

	mu     sync.Mutex
	store  archive.Store
	closed atomic.Bool
}

// Option customizes a Service.
type Option func(*Service)

// WithTranscriptFetcher replaces the configured transcript backend chain.
func WithTranscriptFetcher(f sources.TranscriptFetcher) Option {
	return func(s *Service) {
		s.transcripts = func() (sources.TranscriptFetcher, error) { return f, nil }
	}
}

// WithChannelLister replaces the configured channel backend.
func WithChannelLister(l sources.ChannelLister) Option {
	return func(s *Service) {
		s.channels = func() (sources.ChannelLister, error) { return l, nil }
	}
}

// NewService creates a Service over engine.Cfg.
func NewService(opts ...Option) *Service {
	s := &Service{}
	s.transcripts = sync.OnceValues(s.buildTranscripts)
	s.channels = sync.OnceValues(s.buildChannels)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildTranscripts assembles subprocess (optional) → InnerTube, wrapped in the archive.
func (s *Service) buildTranscripts() (sources.TranscriptFetcher, error) {
	cfg := engine.Cfg
	api := sources.NewInnerTube()

	var chain sources.ChainTranscripts
	if len(cfg.TranscriptCommand) > 0 {
		chain = append(chain, sources.NewSubprocessTranscripts(sources.NewCmdRunner(), cfg.TranscriptCommand, cfg.TranscriptTimeout, api))
		slog.Info("youtube: subprocess transcript backend enabled", slog.String("command", cfg.TranscriptCommand[0]))
	}
	chain = append(chain, sources.NewInnerTubeTranscripts(api, cfg.LanguageFallbacks))

	store, err := archive.Open(context.Background(), cfg.DatabaseURL, cfg.TranscriptDB)
	if err != nil {
		slog.Warn("archive: unavailable, fetching without it", slog.Any("error", err))
		return chain, nil
	}
	if store == nil {
		return chain, nil
	}
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
	return &sources.ArchivedTranscripts{Store: store, Next: chain}, nil
}

// buildChannels prefers the Data API when a key is configured, keeping InnerTube as fallback.
func (s *Service) buildChannels() (sources.ChannelLister, error) {
	cfg := engine.Cfg
	inner := sources.NewInnerTubeChannels(sources.NewInnerTube(), cfg.ContinuationRPS)
	if cfg.YouTubeAPIKey == "" {
		return inner, nil
	}
	dataAPI, err := sources.NewDataAPIChannels(context.Background(), cfg.YouTubeAPIKey)
	if err != nil {
		slog.Warn("youtube: data API unavailable, using InnerTube", slog.Any("error", err))
		return inner, nil
	}
	return sources.ChainChannels{dataAPI, inner}, nil
}

// Close releases the transcript archive if one was opened.
func (s *Service) Close() error {
	s.closed.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// Transcript returns the transcript of video in language, served from the
// tiered cache when possible.
func (s *Service) Transcript(ctx context.Context, video, language string) (*youtube.TranscriptResult, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	id, ok := youtube.ParseVideoID(strings.TrimSpace(video))
	if !ok {
		return nil, youtube.ErrInvalidVideoID
	}
	lang := toolutil.NormLang(language)

	cacheKey := engine.CacheKey("transcript", id, lang)
	if res, ok := toolutil.CacheLoadJSON[youtube.TranscriptResult](ctx, cacheKey); ok {
		slog.Debug("youtube: transcript cache hit", slog.String("id", id), slog.String("lang", lang))
		return &res, nil
	}

	fetcher, err := s.transcripts()
	if err != nil {
		return nil, err
	}
	res, err := fetcher.FetchTranscript(ctx, id, lang)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	toolutil.CacheStoreJSON(ctx, cacheKey, *res)
	return res, nil
}

// GetTranscript renders one page of a transcript.
func (s *Service) GetTranscript(ctx context.Context, in GetTranscriptInput) (string, error) {
	res, err := s.Transcript(ctx, in.Video, in.Language)
	if err != nil {
		return "", err
	}
	maxItems := youtube.DefaultMaxItems
	if in.MaxItems != nil {
		maxItems = max(*in.MaxItems, 0)
	}
	return youtube.FormatTranscript(res, youtube.PageOptions{
		Page:      max(in.Page, 1),
		MaxItems:  maxItems,
		PlainText: isPlainText(in.Format),
	}), nil
}

// GetFullTranscript renders a whole transcript without pagination.
func (s *Service) GetFullTranscript(ctx context.Context, in GetFullTranscriptInput) (string, error) {
	res, err := s.Transcript(ctx, in.Video, in.Language)
	if err != nil {
		return "", err
	}
	return youtube.FormatTranscript(res, youtube.PageOptions{PlainText: isPlainText(in.Format)}), nil
}

// SearchTranscript renders the matches of a query with surrounding context.
func (s *Service) SearchTranscript(ctx context.Context, in SearchTranscriptInput) (string, error) {
	query := strings.TrimSpace(in.Query)
	if _, ok := youtube.ParseVideoID(strings.TrimSpace(in.Video)); !ok {
		return "", youtube.ErrInvalidVideoID
	}
	if query == "" {
		return "", errQueryRequired
	}
	res, err := s.Transcript(ctx, in.Video, in.Language)
	if err != nil {
		return "", err
	}
	if res == nil {
		return youtube.NoTranscript, nil
	}
	contextSize := youtube.DefaultContextSize
	if in.Context != nil {
		contextSize = max(*in.Context, 0)
	}
	matches := youtube.SearchTranscript(res.Segments, query, contextSize)
	return youtube.FormatSearchResults(res.Title, query, matches), nil
}

// ChannelVideos renders the most recent uploads of a channel.
func (s *Service) ChannelVideos(ctx context.Context, in ChannelVideosInput) (string, error) {
	if s.closed.Load() {
		return "", ErrServiceClosed
	}
	ref, ok := youtube.ParseChannelRef(strings.TrimSpace(in.Channel))
	if !ok {
		return "", youtube.ErrInvalidChannelRef
	}
	maxResults := clampMaxResults(in.MaxResults)

	cacheKey := engine.CacheKey("channel", ref.String(), strconv.Itoa(maxResults))
	listing, ok := toolutil.CacheLoadJSON[sources.ChannelListing](ctx, cacheKey)
	if !ok {
		lister, err := s.channels()
		if err != nil {
			return "", err
		}
		fetched, err := lister.ListChannelVideos(ctx, ref, maxResults)
		if err != nil {
			return "", err
		}
		listing = *fetched
		toolutil.CacheStoreJSON(ctx, cacheKey, listing)
	}

	videos := youtube.NormalizeVideos(listing.Records)
	return youtube.FormatChannelVideos(listing.ChannelName, videos, youtube.ParseVideoFormat(in.Format)), nil
}

func clampMaxResults(n int) int {
	if n <= 0 {
		n = DefaultMaxResults
	}
	if limit := engine.Cfg.ChannelMaxResults; limit > 0 && n > limit {
		n = limit
	}
	return n
}

func isPlainText(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), "text")
}
