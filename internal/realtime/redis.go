package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

var errSubscriptionClosed = errors.New("subscription channel closed")

// RedisFeed receives change events republished on a Redis channel by a Relay.
type RedisFeed struct {
	*dispatcher
	client  *redis.Client
	channel string
}

func NewRedisFeed(client *redis.Client, channel string, log *zap.Logger) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFeed{
		dispatcher: newDispatcher(log),
		client:     client,
		channel:    channel,
	}
}

// Run receives until ctx is done, resubscribing with backoff when Redis is
// unreachable or the subscription drops.
func (f *RedisFeed) Run(ctx context.Context) error {
	defer f.closeAll()

	feedBackoff.run(ctx, f.log, f.channel, f.receive)
	return nil
}

func (f *RedisFeed) receive(ctx context.Context, connected func()) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	f.log.Info("change feed subscribed", zap.String("channel", f.channel))
	connected()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			f.dispatchPayload([]byte(msg.Payload))
		}
	}
}

func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return f.client.Publish(ctx, f.channel, data).Err()
}
