package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/hotwatch/dbopen"
)

// UpsertHeadline records one sighting of a headline. Two steps in one
// transaction:
//
//  1. Upsert the canonical headline row keyed on (source_id, title).
//     First sighting inserts with first_seen_at = last_seen_at = CrawledAt;
//     a re-sighting overwrites url, mobile_url and last_seen_at and leaves
//     first_seen_at untouched.
//  2. Unconditionally append an occurrence row.
//
// The transaction guarantees a headline never exists without at least one
// occurrence and an occurrence never references a missing headline.
// Calling twice with identical arguments yields one headline row and two
// occurrence rows: every call is a real sighting.
func (s *Store) UpsertHeadline(ctx context.Context, sighting *Sighting) (string, error) {
	var headlineID string
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO headlines (id, source_id, title, url, mobile_url, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_id, title) DO UPDATE SET
				url = excluded.url,
				mobile_url = excluded.mobile_url,
				last_seen_at = excluded.last_seen_at
			RETURNING id`,
			newHeadlineID(), sighting.SourceID, sighting.Title,
			sighting.URL, sighting.MobileURL, sighting.CrawledAt, sighting.CrawledAt,
		).Scan(&headlineID)
		if err != nil {
			return fmt.Errorf("upsert headline: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO headline_occurrences (id, headline_id, rank, crawled_at)
			VALUES (?, ?, ?, ?)`,
			newOccurrenceID(), headlineID, sighting.Rank, sighting.CrawledAt)
		if err != nil {
			return fmt.Errorf("append occurrence: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return headlineID, nil
}

// GetHeadline retrieves a headline by ID, or nil if absent.
func (s *Store) GetHeadline(ctx context.Context, id string) (*Headline, error) {
	var h Headline
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, source_id, title, url, mobile_url, first_seen_at, last_seen_at
		FROM headlines WHERE id = ?`, id).Scan(
		&h.ID, &h.SourceID, &h.Title, &h.URL, &h.MobileURL, &h.FirstSeenAt, &h.LastSeenAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan headline: %w", err)
	}
	return &h, nil
}

// Occurrences returns the raw sighting log for a headline, oldest first.
func (s *Store) Occurrences(ctx context.Context, headlineID string) ([]*Occurrence, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, headline_id, rank, crawled_at
		FROM headline_occurrences WHERE headline_id = ?
		ORDER BY crawled_at ASC`, headlineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Occurrence
	for rows.Next() {
		var o Occurrence
		if err := rows.Scan(&o.ID, &o.HeadlineID, &o.Rank, &o.CrawledAt); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		result = append(result, &o)
	}
	return result, rows.Err()
}
