package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_youtube/internal/engine/youtube"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool the archive uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres is a Store backed by a pgx pool.
type Postgres struct {
	pool Pool
}

// NewPostgres wraps an existing pool. The schema is not migrated.
func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ConnectPostgres creates a pgx pool and runs the schema migration.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	pg := NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("archive: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return pg, nil
}

// Migrate creates the transcripts table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := p.pool.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("execute postgres.sql: %w", err)
	}
	return nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, videoID, language string) (*youtube.TranscriptResult, bool, error) {
	var (
		res  = &youtube.TranscriptResult{VideoID: videoID}
		segs []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT title, language, segments FROM yt_transcripts WHERE video_id = $1 AND requested_lang = $2`,
		videoID, language,
	).Scan(&res.Title, &res.Language, &segs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("archive: get %s: %w", videoID, err)
	}
	if res.Segments, err = decodeSegments(segs); err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Put implements Store. An existing row for the same video and language is replaced.
func (p *Postgres) Put(ctx context.Context, language string, result *youtube.TranscriptResult) error {
	segs, err := encodeSegments(result.Segments)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO yt_transcripts (video_id, requested_lang, language, title, segments)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, requested_lang) DO UPDATE SET
			language = EXCLUDED.language,
			title = EXCLUDED.title,
			segments = EXCLUDED.segments,
			fetched_at = now()`,
		result.VideoID, language, result.Language, result.Title, segs,
	)
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", result.VideoID, err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
