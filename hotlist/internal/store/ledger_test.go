package store

import (
	"context"
	"testing"
	"time"
)

func TestInsertCrawlSessionStatusDerivation(t *testing.T) {
	// WHAT: Status is partial iff any source failed, success otherwise.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	_, err := s.InsertCrawlSession(ctx, []string{"toutiao", "baidu"}, nil, 50, 1000, 2000)
	if err != nil {
		t.Fatalf("insert success session: %v", err)
	}
	_, err = s.InsertCrawlSession(ctx, []string{"toutiao"}, []string{"baidu"}, 25, 3000, 4000)
	if err != nil {
		t.Fatalf("insert partial session: %v", err)
	}

	sessions, err := s.RecentCrawlSessions(ctx, 10)
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(sessions))
	}
	// Newest first.
	if sessions[0].Status != "partial" {
		t.Errorf("newest status: got %q, want partial", sessions[0].Status)
	}
	if len(sessions[0].SourcesFailed) != 1 || sessions[0].SourcesFailed[0] != "baidu" {
		t.Errorf("failed list: got %v", sessions[0].SourcesFailed)
	}
	if sessions[1].Status != "success" {
		t.Errorf("older status: got %q, want success", sessions[1].Status)
	}
	if len(sessions[1].SourcesSuccess) != 2 {
		t.Errorf("success list: got %v", sessions[1].SourcesSuccess)
	}
}

func TestInsertCrawlSessionDefaultsCompletedAt(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	before := time.Now().UnixMilli()
	_, err := s.InsertCrawlSession(context.Background(), []string{"a"}, nil, 1, before, 0)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	sessions, _ := s.RecentCrawlSessions(context.Background(), 1)
	if sessions[0].CompletedAt < before {
		t.Errorf("completed_at not defaulted: %d < %d", sessions[0].CompletedAt, before)
	}
}

func TestInsertPushRecordKeepsFailures(t *testing.T) {
	// WHAT: Failed dispatches are recorded with their error message.
	// WHY: Push reliability must be auditable; failures are data.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	_, err := s.InsertPushRecord(ctx, &PushRecord{
		PushType: "incremental", Channel: "telegram", HeadlineCount: 12, PushedAt: 5000,
	})
	if err != nil {
		t.Fatalf("insert push: %v", err)
	}
	_, err = s.InsertPushRecord(ctx, &PushRecord{
		PushType: "daily", Channel: "feishu", HeadlineCount: 0, PushedAt: 6000,
		Status: "failed", ErrorMessage: "webhook timeout",
	})
	if err != nil {
		t.Fatalf("insert failed push: %v", err)
	}

	records, err := s.PushRecordsSince(ctx, 0)
	if err != nil {
		t.Fatalf("records since: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if records[0].Status != "failed" || records[0].ErrorMessage != "webhook timeout" {
		t.Errorf("failed record: got %+v", records[0])
	}
	if records[1].Status != "success" {
		t.Errorf("default status: got %q", records[1].Status)
	}

	onlyLater, _ := s.PushRecordsSince(ctx, 5500)
	if len(onlyLater) != 1 {
		t.Errorf("since filter: got %d, want 1", len(onlyLater))
	}
}

func TestDailyStatsRollup(t *testing.T) {
	// WHAT: UpdateDailyStats materializes counts and avg rank for a
	// source-day and is safe to rerun.
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).UnixMilli()

	srcID, _ := s.ResolveSource(ctx, "toutiao", "今日头条")
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "A", Rank: 2, CrawledAt: dayStart + 1000})
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "A", Rank: 4, CrawledAt: dayStart + 2000})
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "B", Rank: 6, CrawledAt: dayStart + 2000})

	if err := s.UpdateDailyStats(ctx, day, srcID); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	// Rerun after more data: recomputed, not incremented.
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "B", Rank: 8, CrawledAt: dayStart + 3000})
	if err := s.UpdateDailyStats(ctx, day, srcID); err != nil {
		t.Fatalf("update stats again: %v", err)
	}

	stats, err := s.DailyStats(ctx, day, day)
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stat rows: got %d, want 1", len(stats))
	}
	st := stats[0]
	if st.StatDate != "2026-08-30" || st.PlatformID != "toutiao" {
		t.Errorf("stat row: got %+v", st)
	}
	if st.HeadlineCount != 4 {
		t.Errorf("occurrence count: got %d, want 4", st.HeadlineCount)
	}
	if st.UniqueHeadlines != 2 {
		t.Errorf("unique headlines: got %d, want 2", st.UniqueHeadlines)
	}
	if st.AvgRank != 5 { // (2+4+6+8)/4
		t.Errorf("avg rank: got %v, want 5", st.AvgRank)
	}
}

func TestTotalCounts(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	srcID, _ := s.ResolveSource(ctx, "baidu", "百度热搜")
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "A", Rank: 1, CrawledAt: 1000})
	s.UpsertHeadline(ctx, &Sighting{SourceID: srcID, Title: "A", Rank: 2, CrawledAt: 2000})
	s.InsertCrawlSession(ctx, []string{"baidu"}, nil, 2, 1000, 2000)

	totals, err := s.TotalCounts(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Sources != 1 || totals.Headlines != 1 || totals.Occurrences != 2 || totals.Sessions != 1 {
		t.Errorf("totals: got %+v", totals)
	}
}
