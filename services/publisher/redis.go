package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// EventField is the stream entry field holding the JSON event
const EventField = "trigger"

// RedisPublisher implements Publisher on a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
	log             *logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewPublisher("redis", "ping failed", err)
	}
	return nil
}

// Publish appends the JSON encoded event to the stream
func (p *RedisPublisher) Publish(ctx context.Context, event TriggerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewPublisher("redis", "failed to encode trigger event", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			EventField: string(payload),
		},
	}).Result()
	if err != nil {
		return apperrors.NewPublisher("redis", fmt.Sprintf("failed to publish to %s", p.stream), err)
	}

	p.log.Debug().
		Str("stream", p.stream).
		Str("entry_id", id).
		Int64("alert_id", event.AlertID).
		Msg("Trigger published")
	return nil
}

// TrimStream trims the stream to the configured maximum length
func (p *RedisPublisher) TrimStream(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}

	if err := p.client.XTrimMaxLen(ctx, p.stream, int64(p.streamMaxLength)).Err(); err != nil {
		return apperrors.NewPublisher("redis", fmt.Sprintf("failed to trim %s", p.stream), err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
