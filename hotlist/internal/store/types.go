package store

// Source is one external ranking platform.
type Source struct {
	ID           string `json:"id"`
	PlatformID   string `json:"platform_id"`
	PlatformName string `json:"platform_name"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Headline is the canonical deduplicated item for one (source, title) pair.
// FirstSeenAt is immutable after insert; LastSeenAt, URL and MobileURL are
// overwritten on every re-sighting.
type Headline struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	MobileURL   string `json:"mobile_url"`
	FirstSeenAt int64  `json:"first_seen_at"`
	LastSeenAt  int64  `json:"last_seen_at"`
}

// Occurrence is one observed sighting of a headline. Append-only.
type Occurrence struct {
	ID         string `json:"id"`
	HeadlineID string `json:"headline_id"`
	Rank       int    `json:"rank"`
	CrawledAt  int64  `json:"crawled_at"`
}

// Sighting is the input to UpsertHeadline: one crawled list entry.
type Sighting struct {
	SourceID  string
	Title     string
	URL       string
	MobileURL string
	Rank      int
	CrawledAt int64
}

// AggregatedItem is a headline with its occurrence history rolled up at
// query time. Ranks is the sorted distinct set of observed ranks.
type AggregatedItem struct {
	HeadlineID      string `json:"headline_id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	MobileURL       string `json:"mobile_url"`
	PlatformID      string `json:"platform_id"`
	PlatformName    string `json:"platform_name"`
	FirstSeenAt     int64  `json:"first_seen_at"`
	LastSeenAt      int64  `json:"last_seen_at"`
	Ranks           []int  `json:"ranks"`
	OccurrenceCount int    `json:"occurrence_count"`
	IsNew           bool   `json:"is_new"`
}

// CrawlSession records one crawl cycle's outcome.
type CrawlSession struct {
	ID             string   `json:"id"`
	StartedAt      int64    `json:"started_at"`
	CompletedAt    int64    `json:"completed_at"`
	SourcesSuccess []string `json:"sources_success"`
	SourcesFailed  []string `json:"sources_failed"`
	HeadlineCount  int      `json:"headline_count"`
	Status         string   `json:"status"` // "success" | "partial"
}

// PushRecord is one notification dispatch attempt.
type PushRecord struct {
	ID            string `json:"id"`
	PushType      string `json:"push_type"`
	Channel       string `json:"channel"`
	HeadlineCount int    `json:"headline_count"`
	PushedAt      int64  `json:"pushed_at"`
	Status        string `json:"status"` // "success" | "failed"
	ErrorMessage  string `json:"error_message"`
}

// WordGroup is one keyword classification rule with its child words.
type WordGroup struct {
	ID              string   `json:"id"`
	GroupKey        string   `json:"group_key"`
	MaxDisplayCount int      `json:"max_display_count"` // 0 = unlimited
	Position        int      `json:"position"`
	IsActive        bool     `json:"is_active"`
	Required        []string `json:"required"`
	Normal          []string `json:"normal"`
}

// WordGroupInput is the configuration shape consumed by SyncWordGroups.
type WordGroupInput struct {
	GroupKey        string   `json:"group_key"`
	MaxDisplayCount int      `json:"max_display_count"`
	Required        []string `json:"required"`
	Normal          []string `json:"normal"`
}

// DailyStat is the materialized per-source-per-day rollup. The occurrence
// log stays the source of truth; rows here are recomputed wholesale.
type DailyStat struct {
	StatDate        string  `json:"stat_date"` // YYYY-MM-DD
	SourceID        string  `json:"source_id"`
	PlatformID      string  `json:"platform_id"`
	PlatformName    string  `json:"platform_name"`
	HeadlineCount   int     `json:"headline_count"`
	UniqueHeadlines int     `json:"unique_headlines"`
	AvgRank         float64 `json:"avg_rank"`
	UpdatedAt       int64   `json:"updated_at"`
}

// Totals holds aggregate table counters.
type Totals struct {
	Sources     int `json:"sources"`
	Headlines   int `json:"headlines"`
	Occurrences int `json:"occurrences"`
	Sessions    int `json:"sessions"`
}
