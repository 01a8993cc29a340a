package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/hotwatch/dbopen"
)

// SyncWordGroups wholesale-replaces the active ruleset: deactivate every
// existing group, then upsert each input group (input order becomes its
// position) and replace its child words. One transaction end to end — a
// partial sync would leave stale and fresh groups simultaneously active,
// which is a correctness bug, so any error rolls the whole sync back.
// Returns the number of groups now active.
func (s *Store) SyncWordGroups(ctx context.Context, groups []*WordGroupInput) (int, error) {
	now := time.Now().UnixMilli()
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE word_groups SET is_active = 0, updated_at = ?`, now); err != nil {
			return fmt.Errorf("deactivate groups: %w", err)
		}

		for position, g := range groups {
			var groupID string
			err := tx.QueryRowContext(ctx,
				`INSERT INTO word_groups (id, group_key, max_display_count, position, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, 1, ?, ?)
				ON CONFLICT(group_key) DO UPDATE SET
					max_display_count = excluded.max_display_count,
					position = excluded.position,
					is_active = 1,
					updated_at = excluded.updated_at
				RETURNING id`,
				newGroupID(), g.GroupKey, g.MaxDisplayCount, position, now, now,
			).Scan(&groupID)
			if err != nil {
				return fmt.Errorf("upsert group %s: %w", g.GroupKey, err)
			}

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM group_words WHERE group_id = ?`, groupID); err != nil {
				return fmt.Errorf("clear words for %s: %w", g.GroupKey, err)
			}
			if err := insertWords(ctx, tx, groupID, g.Required, "required"); err != nil {
				return err
			}
			if err := insertWords(ctx, tx, groupID, g.Normal, "normal"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(groups), nil
}

func insertWords(ctx context.Context, tx *sql.Tx, groupID string, words []string, wordType string) error {
	for _, w := range words {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_words (id, group_id, word, word_type) VALUES (?, ?, ?, ?)`,
			newWordID(), groupID, w, wordType); err != nil {
			return fmt.Errorf("insert %s word %q: %w", wordType, w, err)
		}
	}
	return nil
}

// ActiveWordGroups returns active groups with their words, ordered by
// position.
func (s *Store) ActiveWordGroups(ctx context.Context) ([]*WordGroup, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, group_key, max_display_count, position
		FROM word_groups WHERE is_active = 1 ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*WordGroup
	for rows.Next() {
		var g WordGroup
		if err := rows.Scan(&g.ID, &g.GroupKey, &g.MaxDisplayCount, &g.Position); err != nil {
			return nil, fmt.Errorf("scan word group: %w", err)
		}
		g.IsActive = true
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		wordRows, err := s.DB.QueryContext(ctx,
			`SELECT word, word_type FROM group_words WHERE group_id = ? ORDER BY id`, g.ID)
		if err != nil {
			return nil, err
		}
		for wordRows.Next() {
			var word, wordType string
			if err := wordRows.Scan(&word, &wordType); err != nil {
				wordRows.Close()
				return nil, fmt.Errorf("scan group word: %w", err)
			}
			if wordType == "required" {
				g.Required = append(g.Required, word)
			} else {
				g.Normal = append(g.Normal, word)
			}
		}
		if err := wordRows.Err(); err != nil {
			wordRows.Close()
			return nil, err
		}
		wordRows.Close()
	}
	return groups, nil
}
