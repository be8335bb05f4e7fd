package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	_ "modernc.org/sqlite"
)

// SQLite is a file-backed Store. The database is opened lazily on first use.
type SQLite struct {
	path string

	once sync.Once
	db   *sql.DB
	err  error
}

// NewSQLite returns a store for the database file at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// open opens (or creates) the SQLite archive database.
func (s *SQLite) open() (*sql.DB, error) {
	s.once.Do(func() {
		dir := filepath.Dir(s.path)
		if err := os.MkdirAll(dir, 0750); err != nil {
			s.err = fmt.Errorf("archive: mkdir %s: %w", dir, err)
			return
		}
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			s.err = fmt.Errorf("archive: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		schema, err := schemaFS.ReadFile("schema/sqlite.sql")
		if err != nil {
			s.err = fmt.Errorf("archive: read schema: %w", err)
			return
		}
		if _, err := db.Exec(string(schema)); err != nil {
			_ = db.Close()
			s.err = fmt.Errorf("archive: init schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.err
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, bool, error) {
	db, err := s.open()
	if err != nil {
		return nil, false, err
	}
	var (
		res  = &youtube.TranscriptResult{VideoID: videoID}
		segs string
	)
	err = db.QueryRowContext(ctx,
		`SELECT title, language, segments FROM transcripts WHERE video_id = ? AND requested_lang = ?`,
		videoID, language,
	).Scan(&res.Title, &res.Language, &segs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("archive: get %s: %w", videoID, err)
	}
	if res.Segments, err = decodeSegments([]byte(segs)); err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Put implements Store. An existing row for the same video and language is replaced.
func (s *SQLite) Put(ctx context.Context, language string, result *youtube.TranscriptResult) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	segs, err := encodeSegments(result.Segments)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO transcripts (video_id, requested_lang, language, title, segments, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id, requested_lang) DO UPDATE SET
			language = excluded.language,
			title = excluded.title,
			segments = excluded.segments,
			fetched_at = excluded.fetched_at`,
		result.VideoID, language, result.Language, result.Title, string(segs), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", result.VideoID, err)
	}
	return nil
}

// Close closes the database if it was opened.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
