package store

import (
	"context"
	"fmt"
	"time"
)

const statDateLayout = "2006-01-02"

// UpdateDailyStats recomputes the materialized rollup for one source-day
// from the occurrence log and upserts it. The log remains the source of
// truth; this is a read-cost optimization, not a counter that drifts.
func (s *Store) UpdateDailyStats(ctx context.Context, day time.Time, sourceID string) error {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO daily_stats (stat_date, source_id, headline_count, unique_headlines, avg_rank, updated_at)
		SELECT ?, ?, COUNT(o.id), COUNT(DISTINCT h.id), COALESCE(AVG(o.rank), 0), ?
		FROM headlines h
		JOIN headline_occurrences o ON o.headline_id = h.id
		WHERE h.source_id = ?
		  AND h.first_seen_at >= ? AND h.first_seen_at < ?
		ON CONFLICT(stat_date, source_id) DO UPDATE SET
			headline_count = excluded.headline_count,
			unique_headlines = excluded.unique_headlines,
			avg_rank = excluded.avg_rank,
			updated_at = excluded.updated_at`,
		dayStart.Format(statDateLayout), sourceID, time.Now().UnixMilli(),
		sourceID, dayStart.UnixMilli(), dayEnd.UnixMilli())
	if err != nil {
		return fmt.Errorf("update daily stats: %w", err)
	}
	return nil
}

// DailyStats returns rollup rows for the inclusive date range, newest day
// first, then by platform name.
func (s *Store) DailyStats(ctx context.Context, startDate, endDate time.Time) ([]*DailyStat, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT ds.stat_date, ds.source_id, s.platform_id, s.platform_name,
			ds.headline_count, ds.unique_headlines, ds.avg_rank, ds.updated_at
		FROM daily_stats ds
		JOIN sources s ON s.id = ds.source_id
		WHERE ds.stat_date BETWEEN ? AND ?
		ORDER BY ds.stat_date DESC, s.platform_name`,
		startDate.Format(statDateLayout), endDate.Format(statDateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*DailyStat
	for rows.Next() {
		var d DailyStat
		if err := rows.Scan(&d.StatDate, &d.SourceID, &d.PlatformID, &d.PlatformName,
			&d.HeadlineCount, &d.UniqueHeadlines, &d.AvgRank, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		result = append(result, &d)
	}
	return result, rows.Err()
}

// TotalCounts returns aggregate table counters.
func (s *Store) TotalCounts(ctx context.Context) (*Totals, error) {
	var t Totals
	for _, q := range []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM sources`, &t.Sources},
		{`SELECT COUNT(*) FROM headlines`, &t.Headlines},
		{`SELECT COUNT(*) FROM headline_occurrences`, &t.Occurrences},
		{`SELECT COUNT(*) FROM crawl_sessions`, &t.Sessions},
	} {
		if err := s.DB.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
