// Package store is the data access layer for the hotwatch dedup engine.
//
// All cross-row invariants (source uniqueness, headline uniqueness, atomic
// headline+occurrence insert) live here, enforced by SQLite constraints and
// ON CONFLICT upserts rather than application-level locking. Multi-statement
// writes run through dbopen.RunTx so concurrent readers never observe
// partial state.
package store

import (
	"database/sql"

	"github.com/hazyhaar/hotwatch/idgen"
)

// Store wraps the hotwatch database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Type-scoped row ID generators.
var (
	newSourceID     = idgen.Prefixed("src_", idgen.Default)
	newHeadlineID   = idgen.Prefixed("hl_", idgen.Default)
	newOccurrenceID = idgen.Prefixed("occ_", idgen.Default)
	newSessionID    = idgen.Prefixed("sess_", idgen.Default)
	newPushID       = idgen.Prefixed("push_", idgen.Default)
	newGroupID      = idgen.Prefixed("wg_", idgen.Default)
	newWordID       = idgen.Prefixed("gw_", idgen.Default)
)
