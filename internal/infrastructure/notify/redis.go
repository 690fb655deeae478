// Package notify delivers ledger events to subscribers. The outbox relay
// hands each committed event to a handler here; POS terminals and
// back-office dashboards subscribe to the redis channels.
package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/pkg/logger"
)

// RedisConfig holds connection settings for the notification sink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// ChannelPrefix namespaces the pub/sub channels (default "tillbook").
	ChannelPrefix string
}

// RedisPublisher pushes outbox messages to redis pub/sub, one channel per
// event type: <prefix>.<event_type>.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// Compile-time check that RedisPublisher handles outbox messages.
var _ postgres.OutboxHandler = (*RedisPublisher)(nil)

// NewRedisPublisher connects the sink and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "tillbook"
	}

	return &RedisPublisher{client: client, prefix: prefix}, nil
}

// Handle implements postgres.OutboxHandler.
func (p *RedisPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	channel := p.prefix + "." + msg.EventType
	if err := p.client.Publish(ctx, channel, msg.Payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	logger.Debug(ctx, "event delivered",
		"channel", channel,
		"message_id", msg.ID,
	)
	return nil
}

// Close releases the redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
