package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease is a Redis-backed execution lease. The database running-row already
// serializes per (tenant, category) within one Postgres; the lease cheaply
// short-circuits overlapping ticks across scheduler instances and carries the
// last-success clock for global tasks.
type Lease struct {
	rdb *redis.Client
}

func NewLease(rdb *redis.Client) *Lease {
	return &Lease{rdb: rdb}
}

func leaseKey(tenantID, category string) string {
	return fmt.Sprintf("agents:lease:%s:%s", tenantID, category)
}

func lastSuccessKey(category string) string {
	return fmt.Sprintf("agents:last_success:%s", category)
}

// Acquire takes the lease for (tenant, category). Returns a release func on
// success, or ok=false when another instance holds it. A nil Redis client
// grants every lease, so single-instance deployments run without Redis.
func (l *Lease) Acquire(ctx context.Context, tenantID, category string, ttl time.Duration) (func(), bool, error) {
	if l == nil || l.rdb == nil {
		return func() {}, true, nil
	}

	key := leaseKey(tenantID, category)
	ok, err := l.rdb.SetNX(ctx, key, time.Now().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		l.rdb.Del(context.WithoutCancel(ctx), key)
	}
	return release, true, nil
}

// LastGlobalSuccess reads the last-success clock for a global task.
func (l *Lease) LastGlobalSuccess(ctx context.Context, category string) (time.Time, bool, error) {
	if l == nil || l.rdb == nil {
		return time.Time{}, false, nil
	}
	value, err := l.rdb.Get(ctx, lastSuccessKey(category)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// RecordGlobalSuccess stores the last-success clock for a global task.
func (l *Lease) RecordGlobalSuccess(ctx context.Context, category string, at time.Time) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Set(ctx, lastSuccessKey(category), at.Format(time.RFC3339Nano), 0).Err()
}
