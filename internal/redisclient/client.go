package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const clientName = "agent-portal"

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

// startSpan opens a span for one command. The returned func records the
// command outcome and duration and ends the span.
func startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", clientName),
	)
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Int64("redis.duration_ms", duration.Milliseconds()),
			attribute.String("redis.duration", duration.String()),
		)
		if err != nil && !errors.Is(err, redis.Nil) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("redis.error", err.Error()))
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}

// Get wraps Redis Get with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, finish := startSpan(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	finish(cmd.Err())
	return cmd
}

// Set wraps Redis Set with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(cmd.Err())
	return cmd
}

// Del wraps Redis Del with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "del",
		attribute.StringSlice("redis.keys", keys),
		attribute.Int("redis.key_count", len(keys)),
	)
	cmd := c.cmdable.Del(ctx, keys...)
	finish(cmd.Err())
	return cmd
}

// Ping wraps Redis Ping with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, finish := startSpan(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	finish(cmd.Err())
	return cmd
}

// Expire wraps Redis Expire with tracing
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	ctx, finish := startSpan(ctx, "expire",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Expire(ctx, key, expiration)
	finish(cmd.Err())
	return cmd
}

// HGet wraps Redis HGet with tracing
func (c *Client) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	ctx, finish := startSpan(ctx, "hget",
		attribute.String("redis.key", key),
		attribute.String("redis.field", field),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HGet(ctx, key, field)
	finish(cmd.Err())
	return cmd
}

// HGetAll wraps Redis HGetAll with tracing
func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	ctx, finish := startSpan(ctx, "hgetall",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HGetAll(ctx, key)
	finish(cmd.Err())
	return cmd
}

// HKeys wraps Redis HKeys with tracing
func (c *Client) HKeys(ctx context.Context, key string) *redis.StringSliceCmd {
	ctx, finish := startSpan(ctx, "hkeys",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HKeys(ctx, key)
	finish(cmd.Err())
	return cmd
}

// HSet wraps Redis HSet with tracing
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	ctx, finish := startSpan(ctx, "hset",
		attribute.String("redis.key", key),
		attribute.String("redis.type", "hash"),
	)
	cmd := c.cmdable.HSet(ctx, key, values...)
	finish(cmd.Err())
	return cmd
}

// ReplaceHash atomically swaps the content of a hash and refreshes its TTL.
func (c *Client) ReplaceHash(ctx context.Context, key string, values map[string]string, expiration time.Duration) error {
	ctx, finish := startSpan(ctx, "replace_hash",
		attribute.String("redis.key", key),
		attribute.Int("redis.field_count", len(values)),
		attribute.String("redis.type", "hash"),
	)

	args := make([]interface{}, 0, len(values)*2)
	for field, value := range values {
		args = append(args, field, value)
	}

	_, err := c.cmdable.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(args) > 0 {
			pipe.HSet(ctx, key, args...)
			if expiration > 0 {
				pipe.Expire(ctx, key, expiration)
			}
		}
		return nil
	})
	finish(err)
	return err
}
