package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// releaseLockScript deletes the lock only if it still holds our token
var releaseLockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisDrawLocker is a best-effort mutual exclusion across engine instances.
// The draw state transition in Postgres remains the authority; the lock only
// keeps two instances from doing the same settlement work at once.
type RedisDrawLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisDrawLocker creates a locker storing keys under prefix
func NewRedisDrawLocker(client *redis.Client) *RedisDrawLocker {
	return &RedisDrawLocker{client: client, prefix: "lotto:lock:"}
}

// TryLock acquires key for ttl. acquired is false when another holder owns it.
func (l *RedisDrawLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		log.WithField("key", key).Debug("Lock held by another owner")
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseLockScript.Run(ctx, l.client, []string{fullKey}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if deleted == 0 {
			log.WithField("key", key).Warn("Lock expired before release")
		}
		return nil
	}
	return release, true, nil
}
