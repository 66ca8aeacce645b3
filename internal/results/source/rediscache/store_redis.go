// Package rediscache implements a result source backed by Redis. It sits in
// the fallback chain as a fast internal store and doubles as a write-through
// cache for records resolved via the external web lookup.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

const keyPrefix = "result"

// Cache adapts a Redis instance to the source contract.
type Cache struct {
	id        string
	client    *redis.Client
	timeout   time.Duration
	recordTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTimeout overrides the per-call timeout (default 3s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRecordTTL overrides how long saved records live (default 24h).
func WithRecordTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.recordTTL = ttl
		}
	}
}

// New constructs a Redis-backed result source.
func New(id string, client *redis.Client, opts ...Option) (*Cache, error) {
	if id == "" {
		return nil, fmt.Errorf("source id is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	c := &Cache{
		id:        id,
		client:    client,
		timeout:   3 * time.Second,
		recordTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) ID() string {
	return c.id
}

func recordKey(roll string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, roll)
}

// Query fetches a cached record by normalized roll number.
func (c *Cache) Query(ctx context.Context, q models.RollQuery) source.Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.client.Get(ctx, recordKey(q.RollNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return source.NotFound()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return source.Errored(source.ErrorTimeout, c.id, "get record", err)
		}
		return source.Errored(source.ErrorUnreachable, c.id, "get record", err)
	}

	var record models.ResultRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return source.Errored(source.ErrorMalformed, c.id, "decode cached record", err)
	}

	if q.ExamYear != 0 && record.ExamYear != q.ExamYear {
		return source.NotFound()
	}
	if q.ExamType != "" && record.ExamType != q.ExamType {
		return source.NotFound()
	}

	record.SourceID = c.id
	return source.Found(&record)
}

// Save stores a resolved record for future lookups. The engine calls this
// after a web-fallback hit; failures are the caller's to log and swallow.
func (c *Cache) Save(ctx context.Context, record *models.ResultRecord) error {
	if record == nil || record.RollNumber == "" {
		return fmt.Errorf("record with roll number is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := c.client.Set(ctx, recordKey(record.RollNumber), payload, c.recordTTL).Err(); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}
