package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "portfolio:cooldown:"

// CooldownLedger は Redis 上に最終受付時刻 (ミリ秒) を保存し、複数インスタンスでクールダウンを共有する。
// Keys are written without expiry to match the in-memory ledger.
type CooldownLedger struct {
	client *redis.Client
	prefix string
}

// NewCooldownLedger binds the ledger to client. An empty prefix uses DefaultKeyPrefix.
func NewCooldownLedger(client *redis.Client, prefix string) *CooldownLedger {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CooldownLedger{client: client, prefix: prefix}
}

// LastAccepted reads the stored timestamp for sourceKey.
func (l *CooldownLedger) LastAccepted(ctx context.Context, sourceKey string) (time.Time, bool, error) {
	raw, err := l.client.Get(ctx, l.key(sourceKey)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", sourceKey, err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis value for %s is not a timestamp: %w", sourceKey, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Record overwrites the timestamp for sourceKey.
func (l *CooldownLedger) Record(ctx context.Context, sourceKey string, at time.Time) error {
	if err := l.client.Set(ctx, l.key(sourceKey), at.UnixMilli(), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", sourceKey, err)
	}
	return nil
}

// Ping checks connectivity for health reporting.
func (l *CooldownLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *CooldownLedger) key(sourceKey string) string {
	return l.prefix + sourceKey
}
