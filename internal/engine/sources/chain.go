package sources

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
)

// ChainTranscripts tries each fetcher in order and returns the first success.
// When every fetcher fails the errors are joined in order.
type ChainTranscripts []TranscriptFetcher

// FetchTranscript implements TranscriptFetcher.
func (c ChainTranscripts) FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	if len(c) == 0 {
		return nil, errors.New("no transcript backend configured")
	}
	var errs []error
	for i, f := range c {
		res, err := f.FetchTranscript(ctx, videoID, language)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
		if i < len(c)-1 {
			slog.Warn("youtube: transcript backend failed, trying next",
				slog.String("id", videoID), slog.Int("backend", i), slog.Any("error", err))
		}
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, errors.Join(errs...)
}

// TranscriptStore persists fetched transcripts keyed by video and requested language.
type TranscriptStore interface {
	Get(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, bool, error)
	Put(ctx context.Context, language string, result *youtube.TranscriptResult) error
}

// ArchivedTranscripts serves transcripts from Store and fills it from Next on a miss.
// Store errors are logged and never fail the fetch.
type ArchivedTranscripts struct {
	Store TranscriptStore
	Next  TranscriptFetcher
}

// FetchTranscript implements TranscriptFetcher.
func (a *ArchivedTranscripts) FetchTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, error) {
	res, ok, err := a.Store.Get(ctx, videoID, language)
	switch {
	case err != nil:
		slog.Warn("archive: read failed", slog.String("id", videoID), slog.Any("error", err))
	case ok:
		engine.IncrArchiveHit()
		slog.Debug("archive: hit", slog.String("id", videoID), slog.String("lang", language))
		return res, nil
	default:
		engine.IncrArchiveMiss()
	}

	res, err = a.Next.FetchTranscript(ctx, videoID, language)
	if err != nil || res == nil {
		return res, err
	}
	if err := a.Store.Put(ctx, language, res); err != nil {
		slog.Warn("archive: write failed", slog.String("id", videoID), slog.Any("error", err))
	}
	return res, nil
}

// ChainChannels tries each lister in order, like ChainTranscripts.
// A Data API lister followed by InnerTube survives quota exhaustion.
type ChainChannels []ChannelLister

// ListChannelVideos implements ChannelLister.
func (c ChainChannels) ListChannelVideos(ctx context.Context, ref youtube.ChannelRef, maxResults int) (*ChannelListing, error) {
	if len(c) == 0 {
		return nil, errors.New("no channel backend configured")
	}
	var errs []error
	for i, l := range c {
		listing, err := l.ListChannelVideos(ctx, ref, maxResults)
		if err == nil {
			return listing, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
		if i < len(c)-1 {
			slog.Warn("youtube: channel backend failed, trying next",
				slog.String("channel", ref.String()), slog.Int("backend", i), slog.Any("error", err))
		}
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, errors.Join(errs...)
}
