package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for background tasks backed by Redis.
// Key format: dedup:task:<task_id>
type DedupChecker struct {
	client redis.Cmdable
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client redis.Cmdable) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this task has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, taskID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(taskID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this task has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, taskID string) error {
	return d.client.Set(ctx, d.key(taskID), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(taskID string) string {
	return fmt.Sprintf("dedup:task:%s", taskID)
}
