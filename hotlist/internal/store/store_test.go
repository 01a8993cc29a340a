package store

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/hazyhaar/hotwatch/dbopen"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestApplySchema(t *testing.T) {
	// WHAT: Verify schema creates all tables without error.
	// WHY: Schema is the foundation — if it fails, nothing works.
	db := openTestDB(t)
	for _, table := range []string{"sources", "headlines", "headline_occurrences",
		"crawl_sessions", "push_records", "word_groups", "group_words", "daily_stats"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestResolveSourceCreatesOnce(t *testing.T) {
	// WHAT: Two resolves for the same platform_id return the same row.
	// WHY: Exactly one source row per platform over the system's lifetime.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	id1, err := s.ResolveSource(ctx, "baidu", "百度热搜")
	if err != nil {
		t.Fatalf("resolve 1: %v", err)
	}
	id2, err := s.ResolveSource(ctx, "baidu", "百度热搜")
	if err != nil {
		t.Fatalf("resolve 2: %v", err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %s vs %s", id1, id2)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM sources WHERE platform_id = 'baidu'`).Scan(&count)
	if count != 1 {
		t.Errorf("source rows: got %d, want 1", count)
	}
}

func TestResolveSourceConcurrent(t *testing.T) {
	// WHAT: Concurrent resolves for one platform_id never create duplicates.
	// WHY: Independent crawl workers race on first sighting of a platform.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ResolveSource(ctx, "toutiao", "今日头条"); err != nil {
				t.Errorf("concurrent resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM sources WHERE platform_id = 'toutiao'`).Scan(&count)
	if count != 1 {
		t.Errorf("source rows: got %d, want 1", count)
	}
}

func TestResolveSourceUpdatesDisplayName(t *testing.T) {
	// WHAT: A re-resolve with a new display name overwrites platform_name.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	id, _ := s.ResolveSource(ctx, "weibo", "微博")
	s.ResolveSource(ctx, "weibo", "微博热搜")

	src, err := s.GetSource(ctx, id)
	if err != nil || src == nil {
		t.Fatalf("get source: %v", err)
	}
	if src.PlatformName != "微博热搜" {
		t.Errorf("platform_name: got %q", src.PlatformName)
	}
}

func TestSetSourceActive(t *testing.T) {
	// WHAT: Soft retirement removes a source from ListSources but keeps the row.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	id, _ := s.ResolveSource(ctx, "zhihu", "知乎热榜")
	if err := s.SetSourceActive(ctx, id, false); err != nil {
		t.Fatalf("retire: %v", err)
	}

	list, err := s.ListSources(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("active sources: got %d, want 0", len(list))
	}
	src, _ := s.GetSource(ctx, id)
	if src == nil {
		t.Fatal("retired source row should still exist")
	}
}

func TestSetSourceActiveMissing(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	err := s.SetSourceActive(context.Background(), "src_nope", false)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestUpsertHeadlineFirstSighting(t *testing.T) {
	// WHAT: First sighting creates one headline and one occurrence,
	// first_seen_at == last_seen_at == crawled_at.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	srcID, _ := s.ResolveSource(ctx, "toutiao", "今日头条")
	hlID, err := s.UpsertHeadline(ctx, &Sighting{
		SourceID: srcID, Title: "A", URL: "https://x/a", Rank: 3, CrawledAt: 9000,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	h, err := s.GetHeadline(ctx, hlID)
	if err != nil || h == nil {
		t.Fatalf("get headline: %v", err)
	}
	if h.FirstSeenAt != 9000 || h.LastSeenAt != 9000 {
		t.Errorf("seen at: first %d last %d, want 9000/9000", h.FirstSeenAt, h.LastSeenAt)
	}

	occs, err := s.Occurrences(ctx, hlID)
	if err != nil {
		t.Fatalf("occurrences: %v", err)
	}
	if len(occs) != 1 || occs[0].Rank != 3 {
		t.Errorf("occurrences: got %+v", occs)
	}
}

func TestUpsertHeadlineResighting(t *testing.T) {
	// WHAT: Re-sighting keeps one headline row, pins first_seen_at, moves
	// last_seen_at, overwrites urls, and appends a second occurrence.
	// WHY: This is the core dedup contract of the engine.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	srcID, _ := s.ResolveSource(ctx, "toutiao", "今日头条")
	id1, err := s.UpsertHeadline(ctx, &Sighting{
		SourceID: srcID, Title: "A", URL: "https://x/a", Rank: 3, CrawledAt: 9000,
	})
	if err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	id2, err := s.UpsertHeadline(ctx, &Sighting{
		SourceID: srcID, Title: "A", URL: "https://x/a2", MobileURL: "https://m.x/a2",
		Rank: 1, CrawledAt: 10000,
	})
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("headline ids differ: %s vs %s", id1, id2)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM headlines`).Scan(&count)
	if count != 1 {
		t.Errorf("headline rows: got %d, want 1", count)
	}

	h, _ := s.GetHeadline(ctx, id1)
	if h.FirstSeenAt != 9000 {
		t.Errorf("first_seen_at moved: got %d", h.FirstSeenAt)
	}
	if h.LastSeenAt != 10000 {
		t.Errorf("last_seen_at: got %d, want 10000", h.LastSeenAt)
	}
	if h.URL != "https://x/a2" || h.MobileURL != "https://m.x/a2" {
		t.Errorf("urls not overwritten: %q %q", h.URL, h.MobileURL)
	}

	occs, _ := s.Occurrences(ctx, id1)
	if len(occs) != 2 {
		t.Fatalf("occurrences: got %d, want 2", len(occs))
	}
}

func TestUpsertHeadlineIdenticalCallsAppendOccurrences(t *testing.T) {
	// WHAT: Identical arguments still append a new occurrence each call.
	// WHY: Every call represents a real sighting — not idempotent by design.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	srcID, _ := s.ResolveSource(ctx, "baidu", "百度热搜")
	sighting := &Sighting{SourceID: srcID, Title: "same", Rank: 5, CrawledAt: 1000}
	for i := 0; i < 3; i++ {
		if _, err := s.UpsertHeadline(ctx, sighting); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	var headlines, occurrences int
	db.QueryRow(`SELECT COUNT(*) FROM headlines`).Scan(&headlines)
	db.QueryRow(`SELECT COUNT(*) FROM headline_occurrences`).Scan(&occurrences)
	if headlines != 1 {
		t.Errorf("headlines: got %d, want 1", headlines)
	}
	if occurrences != 3 {
		t.Errorf("occurrences: got %d, want 3", occurrences)
	}
}

func TestUpsertHeadlineSameTitleDifferentSources(t *testing.T) {
	// WHAT: The same title on two platforms is two distinct headlines.
	// WHY: Title is the dedup key within one source, not globally.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	src1, _ := s.ResolveSource(ctx, "toutiao", "今日头条")
	src2, _ := s.ResolveSource(ctx, "baidu", "百度热搜")
	id1, _ := s.UpsertHeadline(ctx, &Sighting{SourceID: src1, Title: "A", Rank: 1, CrawledAt: 1000})
	id2, _ := s.UpsertHeadline(ctx, &Sighting{SourceID: src2, Title: "A", Rank: 1, CrawledAt: 1000})
	if id1 == id2 {
		t.Error("same headline id across sources")
	}
}

func TestUpsertHeadlineRejectsUnknownSource(t *testing.T) {
	// WHAT: An occurrence can never reference a missing source chain.
	db := openTestDB(t)
	s := NewStore(db)

	_, err := s.UpsertHeadline(context.Background(), &Sighting{
		SourceID: "src_missing", Title: "x", Rank: 1, CrawledAt: 1000,
	})
	if err == nil {
		t.Fatal("expected foreign key error")
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM headline_occurrences`).Scan(&count)
	if count != 0 {
		t.Errorf("orphan occurrences: got %d", count)
	}
}
