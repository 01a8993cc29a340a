// Package hotlist is the headline deduplication and occurrence-tracking
// engine. It ingests repeated, overlapping snapshots of ranked items from
// external feeds, keeps one canonical headline per (source, title), an
// append-only sighting log, and answers "today", "new since" and keyword
// queries over it. Crawling, report rendering and push delivery live
// outside this package; it meets them at the CrawlCycle / AggregatedItem /
// PushRecord boundary.
package hotlist

import "github.com/hazyhaar/hotwatch/hotlist/internal/store"

// Re-export store types for public API.
type (
	Source         = store.Source
	Headline       = store.Headline
	Occurrence     = store.Occurrence
	AggregatedItem = store.AggregatedItem
	CrawlSession   = store.CrawlSession
	PushRecord     = store.PushRecord
	WordGroup      = store.WordGroup
	WordGroupInput = store.WordGroupInput
	DailyStat      = store.DailyStat
	Totals         = store.Totals
)

// CrawlItem is one raw (platform, title, url, rank) snapshot entry handed
// over by the crawler.
type CrawlItem struct {
	PlatformID   string `json:"platform_id"`
	PlatformName string `json:"platform_name"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	MobileURL    string `json:"mobile_url"`
	Rank         int    `json:"rank"`
}

// CrawlCycle is one crawl run's full payload: every item the crawler got,
// plus the platforms it failed to fetch.
type CrawlCycle struct {
	Items           []CrawlItem `json:"items"`
	FailedPlatforms []string    `json:"failed_platforms"`
	StartedAt       int64       `json:"started_at"` // ms
	CrawledAt       int64       `json:"crawled_at"` // ms, sighting timestamp
}

// CycleResult summarizes an ingested cycle.
type CycleResult struct {
	SessionID     string   `json:"session_id"`
	HeadlineCount int      `json:"headline_count"`
	Platforms     []string `json:"platforms"`
	Status        string   `json:"status"`
}

// GroupMatch is one word group with the aggregated items that matched it,
// capped at the group's max display count (0 = unlimited). TotalMatched
// keeps the uncapped count for "and N more" style reporting.
type GroupMatch struct {
	GroupKey        string            `json:"group_key"`
	MaxDisplayCount int               `json:"max_display_count"`
	Items           []*AggregatedItem `json:"items"`
	TotalMatched    int               `json:"total_matched"`
}
