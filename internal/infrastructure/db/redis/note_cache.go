package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

const (
	DefaultNotesCacheTTL    = 5 * time.Minute
	DefaultNotesCachePrefix = "notes:"
)

// NoteCache stores note list pages per owner. Each owner has a version counter
// that is part of every page key; bumping it orphans all cached pages at once
// and they age out through their TTL.
//
// Key format: <prefix><owner>:v<version>:<skip>:<limit>:<search>
type NoteCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewNoteCache(client redis.Cmdable, prefix string, ttl time.Duration) *NoteCache {
	if prefix == "" {
		prefix = DefaultNotesCachePrefix
	}
	if ttl <= 0 {
		ttl = DefaultNotesCacheTTL
	}
	return &NoteCache{client: client, prefix: prefix, ttl: ttl}
}

// GetList looks up the page for f under the owner's current version. The
// returned key is valid for SetList even on a miss.
func (c *NoteCache) GetList(ctx context.Context, f ports.NoteFilter) ([]*domain.Note, string, bool, error) {
	key, err := c.pageKey(ctx, f)
	if err != nil {
		return nil, "", false, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, key, false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("note cache get: %w", err)
	}

	var notes []*domain.Note
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, key, false, fmt.Errorf("note cache decode: %w", err)
	}
	return notes, key, true, nil
}

// SetList stores notes under a key previously returned by GetList. If the
// owner's version moved on since, the entry is unreachable and expires.
func (c *NoteCache) SetList(ctx context.Context, key string, notes []*domain.Note) error {
	if key == "" {
		return errors.New("note cache set: empty page key")
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("note cache encode: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate bumps the owner's version and pushes its expiry past the page TTL.
func (c *NoteCache) Invalidate(ctx context.Context, ownerID string) error {
	key := c.versionKey(ownerID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, c.versionTTL())
		return nil
	})
	if err != nil {
		return fmt.Errorf("note cache invalidate: %w", err)
	}
	return nil
}

// versionTTL is refreshed on every read and bump, so the counter only lapses
// after two page TTLs without traffic for the owner. By then every page it
// stamped has expired and restarting at 0 cannot resurrect one.
func (c *NoteCache) versionTTL() time.Duration {
	return 2 * c.ttl
}

func (c *NoteCache) pageKey(ctx context.Context, f ports.NoteFilter) (string, error) {
	v, err := c.client.GetEx(ctx, c.versionKey(f.OwnerID), c.versionTTL()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("note cache version: %w", err)
	}
	return c.prefix + f.OwnerID + ":v" + strconv.FormatInt(v, 10) + ":" +
		strconv.Itoa(f.Skip) + ":" + strconv.Itoa(f.Limit) + ":" + url.QueryEscape(f.Search), nil
}

func (c *NoteCache) versionKey(ownerID string) string {
	return c.prefix + ownerID + ":version"
}
