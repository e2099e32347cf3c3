package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher is the slice of the redis client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay forwards dispatched events to a Redis pub/sub channel.
type RedisRelay struct {
	client  Publisher
	channel string
	logger  *zap.Logger
}

// NewRedisRelay builds a relay. Returns nil when client is nil so callers can skip registration.
func NewRedisRelay(client Publisher, channel string, logger *zap.Logger) *RedisRelay {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Register subscribes the relay to every event type.
func (r *RedisRelay) Register(dispatcher Dispatcher) {
	if r == nil || dispatcher == nil {
		return
	}
	for _, eventType := range AllEventTypes {
		dispatcher.Subscribe(eventType, r.Forward)
	}
}

// Forward publishes the JSON encoded event. Publish failures are logged, not returned.
func (r *RedisRelay) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		r.logger.Warn("redis publish failed",
			zap.String("channel", r.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
