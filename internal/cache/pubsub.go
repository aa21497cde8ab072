package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// PubSubManager fans swap events and risk assessments out over Redis
// Pub/Sub for real-time consumers.
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewPubSubManager connects to Redis at the given address.
func NewPubSubManager(addr string, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: 0}),
		logger: logger,
	}
}

// PublishSwap publishes a swap to the firehose channel and its pair channel.
func (p *PubSubManager) PublishSwap(ctx context.Context, swap *models.SwapRecord) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return fmt.Errorf("marshal swap: %w", err)
	}

	channels := []string{
		constants.PubSubChannelSwaps,
		constants.PubSubChannelPairPrefix + swap.Pair,
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// PublishAssessment publishes a completed risk assessment.
func (p *PubSubManager) PublishAssessment(ctx context.Context, a *models.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return p.client.Publish(ctx, constants.PubSubChannelAssessments, data).Err()
}

// SubscribeSwaps subscribes to a swap channel and invokes handler per event.
// Blocks until ctx is cancelled or the subscription closes.
func (p *PubSubManager) SubscribeSwaps(ctx context.Context, channel string, handler func(*models.SwapRecord)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.logger.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var swap models.SwapRecord
			if err := json.Unmarshal([]byte(msg.Payload), &swap); err != nil {
				p.logger.WithError(err).Warn("skipping malformed swap message")
				continue
			}
			handler(&swap)
		}
	}
}

// Close closes the underlying client.
func (p *PubSubManager) Close() error {
	return p.client.Close()
}
