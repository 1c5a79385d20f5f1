package persistence

import (
	"context"
	"errors"
	"time"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	searchCacheCollection = "search_cache"
	movieItemsCollection  = "movie_items"
)

// movieItemDoc wraps a cached movie with the store-side metadata used
// for purging and the trending scanner.
type movieItemDoc struct {
	ID         string                `bson:"_id"`
	Data       model.NormalizedMovie `bson:"data"`
	StoredAt   time.Time             `bson:"stored_at"`
	Popularity int64                 `bson:"popularity"`
}

// MovieStoreRepository is the MongoDB persistent tier behind the Instant
// Cache. Every method reports model.ErrStoreUnavailable when the client
// is absent so callers can degrade to memory-only.
type MovieStoreRepository struct {
	client *mongo.Client
	dbName string
}

func NewMovieStoreRepository(client *mongo.Client, dbName string) *MovieStoreRepository {
	return &MovieStoreRepository{client: client, dbName: dbName}
}

var _ repository.IMovieStore = (*MovieStoreRepository)(nil)

func (r *MovieStoreRepository) searches() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(searchCacheCollection)
}

func (r *MovieStoreRepository) items() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(movieItemsCollection)
}

// EnsureIndexes creates the expiry and popularity indexes. Failures are
// logged only; the store works without them.
func (r *MovieStoreRepository) EnsureIndexes(ctx context.Context) {
	if r.client == nil {
		return
	}
	searchIdx := mongo.IndexModel{Keys: bson.D{{Key: "stored_at", Value: 1}}}
	if _, err := r.searches().Indexes().CreateOne(ctx, searchIdx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating search_cache stored_at index")
	}
	popularityIdx := mongo.IndexModel{Keys: bson.D{{Key: "popularity", Value: -1}}}
	if _, err := r.items().Indexes().CreateOne(ctx, popularityIdx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating movie_items popularity index")
	}
}

func (r *MovieStoreRepository) GetSearch(ctx context.Context, fingerprint string) (*model.CacheEntry, error) {
	if r.client == nil {
		return nil, model.ErrStoreUnavailable
	}
	var entry model.CacheEntry
	err := r.searches().FindOne(ctx, bson.M{"_id": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *MovieStoreRepository) PutSearch(ctx context.Context, entry *model.CacheEntry) error {
	if r.client == nil {
		return model.ErrStoreUnavailable
	}
	_, err := r.searches().UpdateOne(ctx,
		bson.M{"_id": entry.Fingerprint},
		bson.M{"$set": bson.M{
			"results":   entry.Results,
			"stored_at": entry.StoredAt,
			"ttl":       entry.TTL,
			"hit_count": entry.HitCount,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *MovieStoreRepository) GetItem(ctx context.Context, id string) (*model.NormalizedMovie, error) {
	if r.client == nil {
		return nil, model.ErrStoreUnavailable
	}
	var doc movieItemDoc
	err := r.items().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Data, nil
}

func (r *MovieStoreRepository) PutItems(ctx context.Context, movies []model.NormalizedMovie) error {
	if r.client == nil {
		return model.ErrStoreUnavailable
	}
	now := time.Now().UTC()
	for i := range movies {
		if movies[i].ID == "" {
			continue
		}
		_, err := r.items().UpdateOne(ctx,
			bson.M{"_id": movies[i].ID},
			bson.M{
				"$set":         bson.M{"data": movies[i], "stored_at": now},
				"$setOnInsert": bson.M{"popularity": int64(0)},
			},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *MovieStoreRepository) IncrementPopularity(ctx context.Context, id string) error {
	if r.client == nil {
		return model.ErrStoreUnavailable
	}
	_, err := r.items().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"popularity": int64(1)}},
	)
	return err
}

func (r *MovieStoreRepository) TopPopular(ctx context.Context, k int) ([]string, error) {
	if r.client == nil {
		return nil, model.ErrStoreUnavailable
	}
	if k <= 0 {
		k = 5
	}
	cursor, err := r.items().Find(ctx,
		bson.M{"popularity": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "popularity", Value: -1}}).SetLimit(int64(k)),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := cursor.Close(ctx); cErr != nil {
			logger.GetLogger().WithField("error", cErr).Error("Error while closing cursor")
		}
	}()

	var titles []string
	for cursor.Next(ctx) {
		var doc movieItemDoc
		if err := cursor.Decode(&doc); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding popular item")
			continue
		}
		if doc.Data.Title != "" {
			titles = append(titles, doc.Data.Title)
		}
	}
	return titles, cursor.Err()
}

func (r *MovieStoreRepository) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	if r.client == nil {
		return 0, model.ErrStoreUnavailable
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := r.searches().DeleteMany(ctx, bson.M{"stored_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	itemRes, err := r.items().DeleteMany(ctx, bson.M{"stored_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount + itemRes.DeletedCount, nil
}

func (r *MovieStoreRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return model.ErrStoreUnavailable
	}
	return r.client.Ping(ctx, nil)
}
