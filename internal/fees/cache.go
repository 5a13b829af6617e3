package fees

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/redis"
)

// cacheTombstone marks a (tenant, method) pair known to have no schedule.
const cacheTombstone = redis.FeeScheduleTombstone

// cacheStore is the subset of the redis client the schedule cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	FeeScheduleKey(tenantID, method string) string
}

// scheduleCache keeps JSON snapshots of schedules keyed by (tenant, method).
// Writers overwrite the entry after commit; readers only fill empty keys, so a
// snapshot read before a write can never replace the writer's entry.
// A nil store disables caching.
type scheduleCache struct {
	store cacheStore
	ttl   time.Duration
}

func newScheduleCache(store cacheStore, ttl time.Duration) *scheduleCache {
	return &scheduleCache{store: store, ttl: ttl}
}

func (c *scheduleCache) enabled() bool {
	return c != nil && c.store != nil
}

func (c *scheduleCache) key(tenantID uuid.UUID, method enums.PaymentMethod) string {
	return c.store.FeeScheduleKey(tenantID.String(), method.String())
}

// get reports found=false on a miss. A tombstone is found with a nil schedule.
func (c *scheduleCache) get(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) (*Schedule, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.store.Get(ctx, c.key(tenantID, method))
	if redis.IsNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if raw == cacheTombstone {
		return nil, true, nil
	}
	var schedule Schedule
	if err := json.Unmarshal([]byte(raw), &schedule); err != nil {
		return nil, false, fmt.Errorf("decode cached schedule: %w", err)
	}
	return &schedule, true, nil
}

// put overwrites the entry with a fresh snapshot.
func (c *scheduleCache) put(ctx context.Context, schedule Schedule) error {
	if !c.enabled() {
		return nil
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return c.store.Set(ctx, c.key(schedule.TenantID, schedule.Method), string(payload), c.ttl)
}

// fill stores schedule only when the key is empty.
func (c *scheduleCache) fill(ctx context.Context, schedule Schedule) error {
	if !c.enabled() {
		return nil
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	_, err = c.store.SetNX(ctx, c.key(schedule.TenantID, schedule.Method), string(payload), c.ttl)
	return err
}

// bury overwrites the entry with a tombstone.
func (c *scheduleCache) bury(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) error {
	if !c.enabled() {
		return nil
	}
	return c.store.Set(ctx, c.key(tenantID, method), cacheTombstone, c.ttl)
}

// fillTombstone stores a tombstone only when the key is empty.
func (c *scheduleCache) fillTombstone(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) error {
	if !c.enabled() {
		return nil
	}
	_, err := c.store.SetNX(ctx, c.key(tenantID, method), cacheTombstone, c.ttl)
	return err
}

func (c *scheduleCache) invalidate(ctx context.Context, tenantID uuid.UUID, method enums.PaymentMethod) error {
	if !c.enabled() {
		return nil
	}
	return c.store.Del(ctx, c.key(tenantID, method))
}
