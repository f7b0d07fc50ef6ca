// Package pubsub implements the durable job queue on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/scraper"
)

// Config identifies the topic and subscription carrying job items.
type Config struct {
	ProjectID      string
	TopicID        string
	SubscriptionID string
}

// Queue publishes and consumes scraper.QueueItem messages. Each message body
// is the JSON-encoded item; the subscription guarantees a job id is delivered
// to one worker at a time.
type Queue struct {
	client *pubsub.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Pub/Sub client using Application Default Credentials.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Queue, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("queue project_id and topic_id are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Queue{client: client, cfg: cfg, logger: logger}, nil
}

// Enqueue publishes one job item and waits for the server ack so a submission
// failure is visible to the caller.
func (q *Queue) Enqueue(ctx context.Context, item scraper.QueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queue item: %w", err)
	}
	result := q.client.Topic(q.cfg.TopicID).Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish queue item: %w", err)
	}
	return nil
}

// Receive blocks, delivering decoded items to the handler. A handler error
// nacks the message so the transport can redeliver it.
func (q *Queue) Receive(ctx context.Context, handle func(ctx context.Context, item scraper.QueueItem) error) error {
	if q.cfg.SubscriptionID == "" {
		return fmt.Errorf("queue subscription_id is required for workers")
	}
	sub := q.client.Subscription(q.cfg.SubscriptionID)
	err := sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var item scraper.QueueItem
		if err := json.Unmarshal(msg.Data, &item); err != nil {
			q.logger.Error("drop malformed queue message", zap.Error(err))
			msg.Ack()
			return
		}
		if err := handle(msgCtx, item); err != nil {
			q.logger.Error("job handler failed", zap.String("job_id", item.JobID), zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("pubsub receive: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (q *Queue) Close() error {
	if err := q.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
