package hotlist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/hotwatch/hotlist/internal/classify"
	"github.com/hazyhaar/hotwatch/hotlist/internal/store"
)

// Service is the hotlist orchestrator. All writes funnel through it; the
// crawler hands it whole cycles, the report renderer and push pipeline
// read aggregated items back out.
type Service struct {
	store     *store.Store
	logger    *slog.Logger
	config    *Config
	sanitizer *bluemonday.Policy
}

// New creates a hotlist Service on an already-opened database. The schema
// is applied idempotently.
func New(db *sql.DB, cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("hotlist: apply schema: %w", err)
	}
	return &Service{
		store:     store.NewStore(db),
		logger:    logger,
		config:    cfg,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// IngestCycle runs one crawl cycle through the engine: validate everything
// up front (no partial writes on bad input), resolve sources, upsert every
// sighting, record the session, refresh the touched source-days. Each
// upsert commits in its own transaction, so a mid-cycle storage failure
// leaves only whole sightings behind and the cycle is safe to re-run.
func (svc *Service) IngestCycle(ctx context.Context, cycle *CrawlCycle) (*CycleResult, error) {
	now := time.Now().UnixMilli()
	if cycle.StartedAt == 0 {
		cycle.StartedAt = now
	}
	if cycle.CrawledAt == 0 {
		cycle.CrawledAt = cycle.StartedAt
	}

	// Sanitize and validate the whole batch before writing anything.
	items := make([]CrawlItem, len(cycle.Items))
	for i, item := range cycle.Items {
		item.Title = svc.sanitizeTitle(item.Title)
		if err := svc.validateItem(&item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = item
	}

	sourceIDs := make(map[string]string) // platform_id -> source id
	var platforms []string               // distinct, first-seen order
	for _, item := range items {
		if _, ok := sourceIDs[item.PlatformID]; ok {
			continue
		}
		id, err := svc.store.ResolveSource(ctx, item.PlatformID, item.PlatformName)
		if err != nil {
			return nil, err
		}
		sourceIDs[item.PlatformID] = id
		platforms = append(platforms, item.PlatformID)
	}

	for _, item := range items {
		_, err := svc.store.UpsertHeadline(ctx, &store.Sighting{
			SourceID:  sourceIDs[item.PlatformID],
			Title:     item.Title,
			URL:       item.URL,
			MobileURL: item.MobileURL,
			Rank:      item.Rank,
			CrawledAt: cycle.CrawledAt,
		})
		if err != nil {
			return nil, err
		}
	}

	sessionID, err := svc.store.InsertCrawlSession(ctx,
		platforms, cycle.FailedPlatforms, len(items), cycle.StartedAt, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	day := time.UnixMilli(cycle.CrawledAt)
	for _, platformID := range platforms {
		if err := svc.store.UpdateDailyStats(ctx, day, sourceIDs[platformID]); err != nil {
			// Rollup refresh is recoverable; the occurrence log is intact.
			svc.logger.Warn("daily stats refresh failed",
				"platform", platformID, "error", err)
		}
	}

	status := "success"
	if len(cycle.FailedPlatforms) > 0 {
		status = "partial"
	}
	svc.logger.Info("crawl cycle ingested",
		"session", sessionID,
		"items", len(items),
		"platforms", len(platforms),
		"failed", len(cycle.FailedPlatforms),
		"status", status)

	return &CycleResult{
		SessionID:     sessionID,
		HeadlineCount: len(items),
		Platforms:     platforms,
		Status:        status,
	}, nil
}

// ResolveSource maps an external platform to its stable source ID,
// creating the row on first sighting.
func (svc *Service) ResolveSource(ctx context.Context, platformID, platformName string) (string, error) {
	if platformID == "" {
		return "", fmt.Errorf("%w: missing platform_id", ErrInvalidInput)
	}
	return svc.store.ResolveSource(ctx, platformID, platformName)
}

// Sources returns all active sources.
func (svc *Service) Sources(ctx context.Context) ([]*Source, error) {
	return svc.store.ListSources(ctx)
}

// RetireSource soft-retires a source; its headline history stays.
func (svc *Service) RetireSource(ctx context.Context, id string) error {
	return svc.store.SetSourceActive(ctx, id, false)
}

// TodayItems returns aggregated headlines first seen at or after
// todayStart. When newSince is non-zero, items first seen at or after it
// are flagged IsNew (typically the previous cycle's start).
func (svc *Service) TodayItems(ctx context.Context, platformIDs []string, todayStart, newSince int64) ([]*AggregatedItem, error) {
	items, err := svc.store.TodayItems(ctx, platformIDs, todayStart)
	if err != nil {
		return nil, err
	}
	if newSince > 0 {
		for _, item := range items {
			item.IsNew = item.FirstSeenAt >= newSince
		}
	}
	return items, nil
}

// NewItemsSince returns headlines whose first sighting is at or after
// since — the incremental set between successive crawl cycles.
func (svc *Service) NewItemsSince(ctx context.Context, platformIDs []string, since int64) ([]*AggregatedItem, error) {
	items, err := svc.store.NewSince(ctx, platformIDs, since)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		item.IsNew = true
	}
	return items, nil
}

// SearchKeyword returns today's headlines containing keyword
// (case-insensitive substring), most-repeated first.
func (svc *Service) SearchKeyword(ctx context.Context, keyword string, todayStart int64, platformIDs []string) ([]*AggregatedItem, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", ErrInvalidInput)
	}
	return svc.store.MatchingKeyword(ctx, keyword, todayStart, platformIDs)
}

// SyncWordGroups wholesale-replaces the active classification ruleset.
func (svc *Service) SyncWordGroups(ctx context.Context, groups []*WordGroupInput) (int, error) {
	for i, g := range groups {
		if g.GroupKey == "" {
			return 0, fmt.Errorf("group %d: %w: missing group_key", i, ErrInvalidInput)
		}
	}
	n, err := svc.store.SyncWordGroups(ctx, groups)
	if err != nil {
		return 0, err
	}
	svc.logger.Info("word groups synced", "count", n)
	return n, nil
}

// WordGroups returns the active ruleset in position order.
func (svc *Service) WordGroups(ctx context.Context) ([]*WordGroup, error) {
	return svc.store.ActiveWordGroups(ctx)
}

// Classify buckets aggregated items into the given word groups. Each
// group's item list is capped at its max display count; TotalMatched
// keeps the uncapped figure. Groups nothing matched are omitted.
func Classify(items []*AggregatedItem, groups []*WordGroup) []*GroupMatch {
	var result []*GroupMatch
	for _, g := range groups {
		rule := &classify.Group{
			Key:      g.GroupKey,
			Required: g.Required,
			Normal:   g.Normal,
			MaxCount: g.MaxDisplayCount,
			Position: g.Position,
		}
		var matched []*AggregatedItem
		for _, item := range items {
			if rule.Matches(item.Title) {
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}
		total := len(matched)
		if g.MaxDisplayCount > 0 && total > g.MaxDisplayCount {
			matched = matched[:g.MaxDisplayCount]
		}
		result = append(result, &GroupMatch{
			GroupKey:        g.GroupKey,
			MaxDisplayCount: g.MaxDisplayCount,
			Items:           matched,
			TotalMatched:    total,
		})
	}
	return result
}

// RecordPush records one notification dispatch attempt, failed or not.
func (svc *Service) RecordPush(ctx context.Context, rec *PushRecord) (string, error) {
	if rec.PushType == "" || rec.Channel == "" {
		return "", fmt.Errorf("%w: push_type and channel are required", ErrInvalidInput)
	}
	return svc.store.InsertPushRecord(ctx, rec)
}

// PushesSince returns dispatch attempts at or after since, newest first.
func (svc *Service) PushesSince(ctx context.Context, since int64) ([]*PushRecord, error) {
	return svc.store.PushRecordsSince(ctx, since)
}

// RecentSessions returns the latest crawl sessions, newest first.
func (svc *Service) RecentSessions(ctx context.Context, limit int) ([]*CrawlSession, error) {
	if limit <= 0 {
		limit = svc.config.SessionLimit
	}
	return svc.store.RecentCrawlSessions(ctx, limit)
}

// DailyStats returns materialized per-source-per-day rollups for the
// inclusive date range.
func (svc *Service) DailyStats(ctx context.Context, start, end time.Time) ([]*DailyStat, error) {
	return svc.store.DailyStats(ctx, start, end)
}

// Stats returns aggregate table counters.
func (svc *Service) Stats(ctx context.Context) (*Totals, error) {
	return svc.store.TotalCounts(ctx)
}
