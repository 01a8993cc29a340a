package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// InsertCrawlSession records one crawl cycle's outcome. Status is derived:
// "partial" iff any source failed, else "success". completedAt of zero
// means now. Returns the session ID.
func (s *Store) InsertCrawlSession(ctx context.Context, successPlatforms, failedPlatforms []string, headlineCount int, startedAt, completedAt int64) (string, error) {
	if completedAt == 0 {
		completedAt = time.Now().UnixMilli()
	}
	status := "success"
	if len(failedPlatforms) > 0 {
		status = "partial"
	}

	successJSON, err := marshalPlatformList(successPlatforms)
	if err != nil {
		return "", err
	}
	failedJSON, err := marshalPlatformList(failedPlatforms)
	if err != nil {
		return "", err
	}

	id := newSessionID()
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO crawl_sessions (id, started_at, completed_at, sources_success, sources_failed, headline_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, startedAt, completedAt, successJSON, failedJSON, headlineCount, status)
	if err != nil {
		return "", fmt.Errorf("insert crawl session: %w", err)
	}
	return id, nil
}

// RecentCrawlSessions returns the latest sessions, newest first.
func (s *Store) RecentCrawlSessions(ctx context.Context, limit int) ([]*CrawlSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, started_at, completed_at, sources_success, sources_failed, headline_count, status
		FROM crawl_sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CrawlSession
	for rows.Next() {
		var sess CrawlSession
		var successJSON, failedJSON string
		if err := rows.Scan(&sess.ID, &sess.StartedAt, &sess.CompletedAt,
			&successJSON, &failedJSON, &sess.HeadlineCount, &sess.Status); err != nil {
			return nil, fmt.Errorf("scan crawl session: %w", err)
		}
		if err := json.Unmarshal([]byte(successJSON), &sess.SourcesSuccess); err != nil {
			return nil, fmt.Errorf("unmarshal sources_success: %w", err)
		}
		if err := json.Unmarshal([]byte(failedJSON), &sess.SourcesFailed); err != nil {
			return nil, fmt.Errorf("unmarshal sources_failed: %w", err)
		}
		result = append(result, &sess)
	}
	return result, rows.Err()
}

func marshalPlatformList(platforms []string) (string, error) {
	if platforms == nil {
		platforms = []string{}
	}
	b, err := json.Marshal(platforms)
	if err != nil {
		return "", fmt.Errorf("marshal platform list: %w", err)
	}
	return string(b), nil
}
