package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ResolveSource returns the source ID for platformID, inserting the row on
// first sighting. The whole operation is a single upsert statement, so
// concurrent resolves for the same platformID from independent crawl
// workers land on the same row: exactly one row per distinct platform_id
// over the database's lifetime.
//
// The display name follows the latest resolve (feeds occasionally rename
// themselves); is_active is left alone so soft-retired sources stay retired.
func (s *Store) ResolveSource(ctx context.Context, platformID, platformName string) (string, error) {
	now := time.Now().UnixMilli()
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO sources (id, platform_id, platform_name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(platform_id) DO UPDATE SET
			platform_name = excluded.platform_name,
			updated_at = excluded.updated_at
		RETURNING id`,
		newSourceID(), platformID, platformName, now, now,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("resolve source %s: %w", platformID, err)
	}
	return id, nil
}

// GetSource retrieves a source by ID, or nil if absent.
func (s *Store) GetSource(ctx context.Context, id string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, platform_id, platform_name, is_active, created_at, updated_at
		FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// GetSourceByPlatform retrieves a source by its external platform_id.
func (s *Store) GetSourceByPlatform(ctx context.Context, platformID string) (*Source, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, platform_id, platform_name, is_active, created_at, updated_at
		FROM sources WHERE platform_id = ?`, platformID)
	return scanSource(row)
}

// ListSources returns all active sources.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, platform_id, platform_name, is_active, created_at, updated_at
		FROM sources WHERE is_active = 1 ORDER BY platform_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var src Source
		var active int
		if err := rows.Scan(&src.ID, &src.PlatformID, &src.PlatformName,
			&active, &src.CreatedAt, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.IsActive = active != 0
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// SetSourceActive soft-retires or reactivates a source. Rows are never
// deleted; retired sources keep their headline history.
func (s *Store) SetSourceActive(ctx context.Context, id string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE sources SET is_active = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanSource(row *sql.Row) (*Source, error) {
	var src Source
	var active int
	err := row.Scan(&src.ID, &src.PlatformID, &src.PlatformName,
		&active, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.IsActive = active != 0
	return &src, nil
}
