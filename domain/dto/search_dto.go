package dto

// Res is the generic error envelope returned by middleware and admin
// endpoints.
type Res struct {
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
}

// SearchRequest binds the query-string parameters of the search endpoint.
type SearchRequest struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit,omitempty"`
}

// SweepResponse reports what an admin-triggered sweep removed.
type SweepResponse struct {
	MemoryRemoved     int   `json:"memory_removed"`
	PersistentRemoved int64 `json:"persistent_removed"`
}
