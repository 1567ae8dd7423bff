package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper decides whether a click is the first from an IP on a link
// within the current calendar day.
type Deduper interface {
	FirstToday(ctx context.Context, linkID, ip string, at time.Time) (bool, error)
}

// RedisDeduper implements Deduper with per-day Redis counters.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

// FirstToday increments the daily counter for (link, ip) and reports
// whether this was its first hit. Keys expire after 48 hours so the
// working set stays bounded at roughly two days of distinct visitors.
func (d *RedisDeduper) FirstToday(ctx context.Context, linkID, ip string, at time.Time) (bool, error) {
	key := fmt.Sprintf("clicks:dedup:%s:%s:%s", linkID, ip, at.Format("2006-01-02"))

	n, err := d.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		d.client.Expire(ctx, key, 48*time.Hour)
	}
	return n == 1, nil
}
