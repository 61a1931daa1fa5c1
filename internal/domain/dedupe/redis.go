package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoClient is returned by NewRedisDeduper without a client.
var ErrNoClient = errors.New("dedupe: redis client is nil")

const (
	defaultKeyPrefix = "ladder:submission:"
	defaultTTL       = 7 * 24 * time.Hour
	defaultRefresh   = 30 * time.Second
	scanBatch        = 500
)

// RedisOption configures a RedisDeduper.
type RedisOption func(*RedisDeduper)

// WithKeyPrefix namespaces the keys written to Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *RedisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTTL sets how long a recorded ID is remembered.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *RedisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithSizeRefresh sets how long Size reuses its last SCAN result. Zero scans
// on every call.
func WithSizeRefresh(d time.Duration) RedisOption {
	return func(r *RedisDeduper) {
		if d >= 0 {
			r.refresh = d
		}
	}
}

// RedisDeduper records IDs as expiring Redis keys so several service
// instances share one view of what was submitted.
type RedisDeduper struct {
	client redis.Cmdable
	prefix  string
	ttl     time.Duration
	refresh time.Duration

	mu        sync.Mutex
	size      int64
	scannedAt time.Time
}

// NewRedisDeduper creates a deduper on top of client.
func NewRedisDeduper(client redis.Cmdable, opts ...RedisOption) (*RedisDeduper, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	d := &RedisDeduper{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL, refresh: defaultRefresh}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *RedisDeduper) key(id string) string { return d.prefix + id }

// SeenAndRecord implements Deduper with SET NX.
func (d *RedisDeduper) SeenAndRecord(ctx context.Context, id string) (bool, error) {
	created, err := d.client.SetNX(ctx, d.key(id), time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx %s: %w", id, err)
	}
	return !created, nil
}

// Unrecord implements Deduper.
func (d *RedisDeduper) Unrecord(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.key(id)).Err(); err != nil {
		return fmt.Errorf("dedupe del %s: %w", id, err)
	}
	return nil
}

// Size implements Deduper by scanning the key prefix. The count is cached
// for the refresh interval. It returns -1 when Redis cannot be reached.
func (d *RedisDeduper) Size(ctx context.Context) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.scannedAt.IsZero() && time.Since(d.scannedAt) < d.refresh {
		return d.size
	}
	n, err := d.scan(ctx)
	if err != nil {
		return -1
	}
	d.size, d.scannedAt = n, time.Now()
	return n
}

func (d *RedisDeduper) scan(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := d.client.Scan(ctx, cursor, d.prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
