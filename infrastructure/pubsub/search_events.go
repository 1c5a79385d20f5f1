package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"
)

// NewPubSub connects the GCP Pub/Sub client used for the advisory
// search-event stream.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

// SearchEventPublisher emits one compact event per foreground search.
// With a nil client it is a no-op, matching the rest of the degradation
// story.
type SearchEventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewSearchEventPublisher(client *pubsub.Client, topic string) repository.ISearchEvents {
	return &SearchEventPublisher{client: client, topic: topic}
}

func (p *SearchEventPublisher) Publish(ctx context.Context, event model.SearchEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := p.client.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).Debug("Search event published")
	return nil
}
