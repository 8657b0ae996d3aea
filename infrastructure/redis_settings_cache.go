package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// CachedSettingsRepository serves game settings and permissions from Redis
// and falls back to the wrapped store on a miss. Writes go to the store and
// evict the cached copy; SettingsCacheInvalidator evicts it again after commit.
type CachedSettingsRepository struct {
	inner  interfaces.GameSettingsRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSettingsRepository wraps inner with a Redis cache
func NewCachedSettingsRepository(inner interfaces.GameSettingsRepository, client *redis.Client, ttl time.Duration) *CachedSettingsRepository {
	return &CachedSettingsRepository{inner: inner, client: client, ttl: ttl}
}

// SettingsCacheDecorator returns a decorator for the repository unit of work
func SettingsCacheDecorator(client *redis.Client, ttl time.Duration) func(interfaces.GameSettingsRepository) interfaces.GameSettingsRepository {
	return func(inner interfaces.GameSettingsRepository) interfaces.GameSettingsRepository {
		return NewCachedSettingsRepository(inner, client, ttl)
	}
}

// SettingsCacheInvalidator evicts the cached configuration of a game type
type SettingsCacheInvalidator struct {
	client *redis.Client
}

// NewSettingsCacheInvalidator creates a new SettingsCacheInvalidator
func NewSettingsCacheInvalidator(client *redis.Client) *SettingsCacheInvalidator {
	return &SettingsCacheInvalidator{client: client}
}

// InvalidateGame deletes the cached setting and permission of gameType
func (i *SettingsCacheInvalidator) InvalidateGame(ctx context.Context, gameType entities.GameType) error {
	if err := i.client.Del(ctx, settingKey(gameType), permissionKey(gameType)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached settings of %s: %w", gameType, err)
	}
	return nil
}

func settingKey(gameType entities.GameType) string {
	return fmt.Sprintf("lotto:settings:%s", gameType)
}

func permissionKey(gameType entities.GameType) string {
	return fmt.Sprintf("lotto:permissions:%s", gameType)
}

// GetSetting returns the cached setting, loading it from the store on a miss
func (r *CachedSettingsRepository) GetSetting(ctx context.Context, gameType entities.GameType) (*entities.GameSetting, error) {
	var setting entities.GameSetting
	if r.load(ctx, settingKey(gameType), &setting) {
		return &setting, nil
	}

	loaded, err := r.inner.GetSetting(ctx, gameType)
	if err != nil || loaded == nil {
		return loaded, err
	}
	r.store(ctx, settingKey(gameType), loaded)
	return loaded, nil
}

// GetPermission returns the cached permission, loading it from the store on a miss
func (r *CachedSettingsRepository) GetPermission(ctx context.Context, gameType entities.GameType) (*entities.GamePermission, error) {
	var permission entities.GamePermission
	if r.load(ctx, permissionKey(gameType), &permission) {
		return &permission, nil
	}

	loaded, err := r.inner.GetPermission(ctx, gameType)
	if err != nil || loaded == nil {
		return loaded, err
	}
	r.store(ctx, permissionKey(gameType), loaded)
	return loaded, nil
}

// UpsertSetting writes through to the store and evicts the cached setting
func (r *CachedSettingsRepository) UpsertSetting(ctx context.Context, setting *entities.GameSetting) error {
	if err := r.inner.UpsertSetting(ctx, setting); err != nil {
		return err
	}
	r.evict(ctx, settingKey(setting.GameType))
	return nil
}

// UpsertPermission writes through to the store and evicts the cached permission
func (r *CachedSettingsRepository) UpsertPermission(ctx context.Context, permission *entities.GamePermission) error {
	if err := r.inner.UpsertPermission(ctx, permission); err != nil {
		return err
	}
	r.evict(ctx, permissionKey(permission.GameType))
	return nil
}

// load reads key into dst. Cache failures count as misses.
func (r *CachedSettingsRepository) load(ctx context.Context, key string, dst any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Settings cache read failed")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Discarding undecodable settings cache entry")
		r.evict(ctx, key)
		return false
	}
	return true
}

func (r *CachedSettingsRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Failed to encode settings cache entry")
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Settings cache write failed")
	}
}

func (r *CachedSettingsRepository) evict(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Settings cache eviction failed")
	}
}
