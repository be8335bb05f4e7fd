// Package archive persists fetched transcripts so repeated pages of the same
// video are served locally. SQLite is the default; Postgres is used when a
// database URL is configured.
package archive

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store reads and writes transcripts keyed by video ID and requested language.
type Store interface {
	Get(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, bool, error)
	Put(ctx context.Context, language string, result *youtube.TranscriptResult) error
	Close() error
}

// Off disables the SQLite archive when used as its path.
const Off = "off"

// DefaultSQLitePath is ~/.go_youtube/transcripts.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".go_youtube", "transcripts.db")
}

// Open returns the configured archive: Postgres when databaseURL is set,
// otherwise SQLite at sqlitePath. It returns nil, nil when both are disabled.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		pg, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if sqlitePath == "" || strings.EqualFold(sqlitePath, Off) {
		slog.Info("archive: disabled")
		return nil, nil
	}
	return NewSQLite(sqlitePath), nil
}

func encodeSegments(segs []youtube.Segment) ([]byte, error) {
	if segs == nil {
		segs = []youtube.Segment{}
	}
	data, err := json.Marshal(segs)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}
	return data, nil
}

func decodeSegments(data []byte) ([]youtube.Segment, error) {
	var segs []youtube.Segment
	if err := json.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return segs, nil
}
