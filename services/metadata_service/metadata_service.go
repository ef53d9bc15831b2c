package metadata_service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MetadataService keeps the library bookkeeping: file rows, tags and
// generated summaries. It is deliberately plain CRUD over the shared pool.
type MetadataService struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func New(db *pgxpool.Pool, logger *slog.Logger) *MetadataService {
	return &MetadataService{
		db:     db,
		logger: logger,
	}
}

type Summary struct {
	Path      string    `json:"path"`
	Summary   string    `json:"summary"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *MetadataService) UpsertFileMetadata(ctx context.Context, path, filename, fileType string, size int64, lastModified time.Time) error {
	_, err := m.db.Exec(ctx,
		`INSERT INTO files (path, filename, file_type, size, last_modified)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (path) DO UPDATE
		 SET filename = $2, file_type = $3, size = $4, last_modified = $5`,
		path, filename, fileType, size, lastModified)
	if err != nil {
		return fmt.Errorf("failed to upsert file metadata: %w", err)
	}
	return nil
}

func (m *MetadataService) DeleteFile(ctx context.Context, path string) error {
	for _, stmt := range []string{
		`DELETE FROM file_tags WHERE path = $1`,
		`DELETE FROM summaries WHERE path = $1`,
		`DELETE FROM files WHERE path = $1`,
	} {
		if _, err := m.db.Exec(ctx, stmt, path); err != nil {
			return fmt.Errorf("failed to delete file metadata: %w", err)
		}
	}
	return nil
}

func (m *MetadataService) AddTag(ctx context.Context, name string) error {
	_, err := m.db.Exec(ctx,
		`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

func (m *MetadataService) DeleteTag(ctx context.Context, name string) error {
	_, err := m.db.Exec(ctx, `DELETE FROM tags WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

func (m *MetadataService) AllTags(ctx context.Context) ([]string, error) {
	rows, err := m.db.Query(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// UpdateFileTags replaces the tag set of one file.
func (m *MetadataService) UpdateFileTags(ctx context.Context, path string, tags []string) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM file_tags WHERE path = $1`, path); err != nil {
		return fmt.Errorf("failed to clear file tags: %w", err)
	}
	for _, tag := range tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, tag); err != nil {
			return fmt.Errorf("failed to register tag: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO file_tags (path, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`, path, tag); err != nil {
			return fmt.Errorf("failed to tag file: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (m *MetadataService) FileTags(ctx context.Context, path string) ([]string, error) {
	rows, err := m.db.Query(ctx, `SELECT tag FROM file_tags WHERE path = $1 ORDER BY tag`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list file tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (m *MetadataService) SaveSummary(ctx context.Context, path, summary, model string) error {
	_, err := m.db.Exec(ctx,
		`INSERT INTO summaries (path, summary, model, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (path) DO UPDATE
		 SET summary = $2, model = $3, created_at = now()`,
		path, summary, model)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (m *MetadataService) GetSummary(ctx context.Context, path string) (*Summary, error) {
	var s Summary
	err := m.db.QueryRow(ctx,
		`SELECT path, summary, model, created_at FROM summaries WHERE path = $1`, path).
		Scan(&s.Path, &s.Summary, &s.Model, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MetadataService) FilesWithSummaries(ctx context.Context) ([]string, error) {
	rows, err := m.db.Query(ctx, `SELECT path FROM summaries`)
	if err != nil {
		return nil, fmt.Errorf("failed to list summarized files: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
