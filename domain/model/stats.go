package model

// CacheStats exposes Instant Cache counters for the stats endpoint.
type CacheStats struct {
	MemoryEntries       int   `json:"memory_entries"`
	IndexedItems        int   `json:"indexed_items"`
	Hits                int64 `json:"hits"`
	Misses              int64 `json:"misses"`
	Promotions          int64 `json:"promotions"`
	PersistentAvailable bool  `json:"persistent_available"`
}

// SourceStats exposes per-source fetch and rate-limiter counters.
type SourceStats struct {
	Requests  int64   `json:"requests"`
	Skipped   int64   `json:"skipped"`
	Failures  int64   `json:"failures"`
	TokensNow float64 `json:"tokens_now"`
}

// FetcherStats aggregates Real-time Fetcher observability data.
type FetcherStats struct {
	DedupHits   int64                  `json:"dedup_hits"`
	DedupMisses int64                  `json:"dedup_misses"`
	Sources     map[string]SourceStats `json:"sources"`
}

// PrefetchStats aggregates Smart Pre-fetcher observability data.
type PrefetchStats struct {
	PriorityQueueDepth int   `json:"priority_queue_depth"`
	GeneralQueueDepth  int   `json:"general_queue_depth"`
	Enqueued           int64 `json:"enqueued"`
	Dropped            int64 `json:"dropped"`
	Attempts           int64 `json:"attempts"`
	CacheWarmed        int64 `json:"cache_warmed"`
	AlreadyFresh       int64 `json:"already_fresh"`
}

// Stats is the aggregate returned by the orchestrator's stats call.
type Stats struct {
	Searches    int64         `json:"searches"`
	CacheServed int64         `json:"cache_served"`
	FetchServed int64         `json:"fetch_served"`
	Cache       CacheStats    `json:"cache"`
	Fetcher     FetcherStats  `json:"fetcher"`
	Prefetch    PrefetchStats `json:"prefetch"`
}
