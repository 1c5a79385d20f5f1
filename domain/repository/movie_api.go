package repository

import (
	"context"

	"movie-hub/domain/model"
)

// IMovieAPI is the metadata API client consumed by the retrieval core.
// Implementations carry their own timeout and rate limiting; any failure
// they return is treated by callers as an empty result.
type IMovieAPI interface {
	Search(ctx context.Context, query string, limit int) ([]model.NormalizedMovie, error)
	GetByID(ctx context.Context, id string) (*model.NormalizedMovie, error)
	Ping(ctx context.Context) error
	Close() error
}
