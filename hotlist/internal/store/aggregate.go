package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Rank histories and occurrence counts are never stored pre-aggregated:
// every query below recomputes them from the append-only occurrence log,
// so the aggregation can never drift from the raw data.

const aggregatedColumns = `
	h.id, h.title, h.url, h.mobile_url, h.first_seen_at, h.last_seen_at,
	s.platform_id, s.platform_name,
	GROUP_CONCAT(DISTINCT o.rank) AS ranks,
	COUNT(o.id) AS occurrence_count`

// TodayItems returns aggregated headlines first seen at or after todayStart
// for the given platforms, most recently sighted first.
func (s *Store) TodayItems(ctx context.Context, platformIDs []string, todayStart int64) ([]*AggregatedItem, error) {
	if len(platformIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(platformIDs)+1)
	for _, p := range platformIDs {
		args = append(args, p)
	}
	args = append(args, todayStart)

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+aggregatedColumns+`
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		JOIN headline_occurrences o ON o.headline_id = h.id
		WHERE s.platform_id IN (`+placeholders(len(platformIDs))+`)
		  AND h.first_seen_at >= ?
		GROUP BY h.id
		ORDER BY h.last_seen_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("today items: %w", err)
	}
	return scanAggregated(rows)
}

// NewSince returns aggregated headlines whose first sighting is at or after
// since, newest first appearance first. Answers "what appeared for the
// first time after this instant" between successive crawl cycles.
func (s *Store) NewSince(ctx context.Context, platformIDs []string, since int64) ([]*AggregatedItem, error) {
	if len(platformIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(platformIDs)+1)
	for _, p := range platformIDs {
		args = append(args, p)
	}
	args = append(args, since)

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+aggregatedColumns+`
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		JOIN headline_occurrences o ON o.headline_id = h.id
		WHERE s.platform_id IN (`+placeholders(len(platformIDs))+`)
		  AND h.first_seen_at >= ?
		GROUP BY h.id
		ORDER BY h.first_seen_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("new since: %w", err)
	}
	return scanAggregated(rows)
}

// MatchingKeyword returns aggregated headlines from today whose title
// contains keyword (case-insensitive), most-repeated first. platformIDs
// is optional; nil means all platforms.
func (s *Store) MatchingKeyword(ctx context.Context, keyword string, todayStart int64, platformIDs []string) ([]*AggregatedItem, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"

	query := `
		SELECT ` + aggregatedColumns + `
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		JOIN headline_occurrences o ON o.headline_id = h.id
		WHERE LOWER(h.title) LIKE ?
		  AND h.first_seen_at >= ?`
	args := []any{pattern, todayStart}
	if len(platformIDs) > 0 {
		query += ` AND s.platform_id IN (` + placeholders(len(platformIDs)) + `)`
		for _, p := range platformIDs {
			args = append(args, p)
		}
	}
	query += `
		GROUP BY h.id
		ORDER BY occurrence_count DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("matching keyword: %w", err)
	}
	return scanAggregated(rows)
}

func scanAggregated(rows *sql.Rows) ([]*AggregatedItem, error) {
	defer rows.Close()

	var result []*AggregatedItem
	for rows.Next() {
		var item AggregatedItem
		var ranksCSV string
		if err := rows.Scan(&item.HeadlineID, &item.Title, &item.URL, &item.MobileURL,
			&item.FirstSeenAt, &item.LastSeenAt, &item.PlatformID, &item.PlatformName,
			&ranksCSV, &item.OccurrenceCount); err != nil {
			return nil, fmt.Errorf("scan aggregated item: %w", err)
		}
		ranks, err := parseRanks(ranksCSV)
		if err != nil {
			return nil, err
		}
		item.Ranks = ranks
		result = append(result, &item)
	}
	return result, rows.Err()
}

// parseRanks converts a GROUP_CONCAT(DISTINCT rank) value into a sorted
// int slice. SQLite cannot order inside GROUP_CONCAT, so sorting happens
// here.
func parseRanks(csv string) ([]int, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	ranks := make([]int, 0, len(parts))
	for _, p := range parts {
		r, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse rank %q: %w", p, err)
		}
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
