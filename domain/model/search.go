package model

import "time"

// CacheEntry is one cached search resolution keyed by its fingerprint.
type CacheEntry struct {
	Fingerprint string            `json:"fingerprint" bson:"_id"`
	Results     []NormalizedMovie `json:"results" bson:"results"`
	StoredAt    time.Time         `json:"stored_at" bson:"stored_at"`
	TTL         time.Duration     `json:"ttl" bson:"ttl"`
	HitCount    int64             `json:"hit_count" bson:"hit_count"`
}

// Fresh reports whether the entry may still be served.
func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) <= e.TTL
}

// SearchPattern aggregates how often a normalized query has been seen.
type SearchPattern struct {
	NormalizedQuery string    `json:"normalized_query"`
	Frequency       int       `json:"frequency"`
	LastSeenAt      time.Time `json:"last_seen_at"`
}

// TaskPriority selects which pre-fetch queue a task lands on.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityNormal TaskPriority = "normal"
)

// PrefetchTask is a cache-warming request produced by the pattern
// analyzer or one of the periodic predictors.
type PrefetchTask struct {
	Query      string       `json:"query"`
	Reason     string       `json:"reason"`
	Priority   TaskPriority `json:"priority"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}

// PhaseTimings breaks the elapsed time of a search down per phase.
type PhaseTimings struct {
	CacheMs  int64 `json:"cache_ms"`
	APIMs    int64 `json:"api_ms,omitempty"`
	ScrapeMs int64 `json:"scrape_ms,omitempty"`
	TotalMs  int64 `json:"total_ms"`
}

// SearchMetadata describes how a search was resolved. Callers tell a
// legitimate empty result apart from a degraded one through LayerUsed,
// Performance and the optional Error string; the shape never changes.
type SearchMetadata struct {
	LayerUsed      string       `json:"layer_used"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	Cached         bool         `json:"cached"`
	Sources        []string     `json:"sources"`
	SearchID       string       `json:"search_id"`
	Performance    string       `json:"performance"`
	Timings        PhaseTimings `json:"timings"`
	Error          string       `json:"error,omitempty"`
}

// SearchResponse is the single response shape of the retrieval core.
type SearchResponse struct {
	Results  []NormalizedMovie `json:"results"`
	Metadata SearchMetadata    `json:"metadata"`
}

// SearchEvent is the compact analytics record published per foreground
// search. Advisory only; losing events is acceptable.
type SearchEvent struct {
	Query       string    `json:"query"`
	Layer       string    `json:"layer"`
	ResultCount int       `json:"result_count"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	At          time.Time `json:"at"`
}

// HealthStatus is the aggregate of per-layer health probes.
type HealthStatus struct {
	Status    string            `json:"status"`
	Layers    map[string]string `json:"layers"`
	CheckedAt time.Time         `json:"checked_at"`
}
