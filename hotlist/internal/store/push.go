package store

import (
	"context"
	"fmt"
	"time"
)

// InsertPushRecord records one notification dispatch attempt. Failed
// attempts are inserted like successful ones so push reliability stays
// auditable. Returns the record ID.
func (s *Store) InsertPushRecord(ctx context.Context, rec *PushRecord) (string, error) {
	if rec.PushedAt == 0 {
		rec.PushedAt = time.Now().UnixMilli()
	}
	if rec.Status == "" {
		rec.Status = "success"
	}

	id := newPushID()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO push_records (id, push_type, channel, headline_count, pushed_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.PushType, rec.Channel, rec.HeadlineCount, rec.PushedAt, rec.Status, rec.ErrorMessage)
	if err != nil {
		return "", fmt.Errorf("insert push record: %w", err)
	}
	rec.ID = id
	return id, nil
}

// PushRecordsSince returns dispatch attempts at or after since, newest
// first.
func (s *Store) PushRecordsSince(ctx context.Context, since int64) ([]*PushRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, push_type, channel, headline_count, pushed_at, status, error_message
		FROM push_records WHERE pushed_at >= ? ORDER BY pushed_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*PushRecord
	for rows.Next() {
		var r PushRecord
		if err := rows.Scan(&r.ID, &r.PushType, &r.Channel, &r.HeadlineCount,
			&r.PushedAt, &r.Status, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan push record: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}
