package repository

import (
	"context"

	"movie-hub/domain/model"
)

// ISearchEvents publishes per-search analytics events. Implementations
// are advisory: a publish failure is logged and dropped.
type ISearchEvents interface {
	Publish(ctx context.Context, event model.SearchEvent) error
}
