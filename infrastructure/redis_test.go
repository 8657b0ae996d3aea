package infrastructure

import (
	"context"
	"testing"
	"time"

	"lotto/domain/entities"
	"lotto/domain/testhelpers"
	"lotto/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDrawLocker(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()
	locker := NewRedisDrawLocker(client)

	release, acquired, err := locker.TryLock(ctx, "settle:LA:20261101", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquired, err = locker.TryLock(ctx, "settle:LA:20261101", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "second owner must not acquire a held lock")

	// other draws are independent
	otherRelease, acquired, err := locker.TryLock(ctx, "settle:HN:20261101", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))
	release, acquired, err = locker.TryLock(ctx, "settle:LA:20261101", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// a stale release must not delete a lock taken over by another owner
	require.NoError(t, client.Set(ctx, "lotto:lock:settle:LA:20261101", "someone-else", time.Minute).Err())
	require.NoError(t, release(ctx))
	holder, err := client.Get(ctx, "lotto:lock:settle:LA:20261101").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", holder)
}

func TestCachedSettingsRepository(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	inner := &testhelpers.MockGameSettingsRepository{}
	repo := NewCachedSettingsRepository(inner, client, time.Minute)

	setting := testutil.CreateTestSetting(entities.GameTypeLao, []entities.PlayType{entities.PlayTypeTwoUp})
	permission := testutil.CreateTestPermission(entities.GameTypeLao)
	inner.On("GetSetting", ctx, entities.GameTypeLao).Return(setting, nil).Once()
	inner.On("GetPermission", ctx, entities.GameTypeLao).Return(permission, nil).Once()

	t.Run("miss loads from the store, hit serves from redis", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			got, err := repo.GetSetting(ctx, entities.GameTypeLao)
			require.NoError(t, err)
			assert.Equal(t, "15:00", got.GameStopHour)
			assert.True(t, got.Discounts[entities.PlayTypeTwoUp].Standard.Equal(decimal.NewFromInt(10)))

			perm, err := repo.GetPermission(ctx, entities.GameTypeLao)
			require.NoError(t, err)
			assert.True(t, perm.AcceptsPlays())
		}
		inner.AssertNumberOfCalls(t, "GetSetting", 1)
		inner.AssertNumberOfCalls(t, "GetPermission", 1)
	})

	t.Run("upsert evicts the cached copy", func(t *testing.T) {
		updated := *setting
		updated.GameStopHour = "14:30"
		inner.On("UpsertSetting", ctx, &updated).Return(nil).Once()
		inner.On("GetSetting", ctx, entities.GameTypeLao).Return(&updated, nil).Once()

		require.NoError(t, repo.UpsertSetting(ctx, &updated))
		got, err := repo.GetSetting(ctx, entities.GameTypeLao)
		require.NoError(t, err)
		assert.Equal(t, "14:30", got.GameStopHour)
		inner.AssertNumberOfCalls(t, "GetSetting", 2)
	})

	t.Run("undecodable entries fall back to the store", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, permissionKey(entities.GameTypeLao), "{broken", time.Minute).Err())
		inner.On("GetPermission", ctx, entities.GameTypeLao).Return(permission, nil).Once()

		perm, err := repo.GetPermission(ctx, entities.GameTypeLao)
		require.NoError(t, err)
		assert.True(t, perm.IsAvailableGameTotal)
		inner.AssertNumberOfCalls(t, "GetPermission", 2)
	})

	t.Run("invalidation after commit drops a re-cached old row", func(t *testing.T) {
		require.NoError(t, client.Del(ctx, settingKey(entities.GameTypeLao)).Err())

		// a reader outside the admin transaction still sees the old row
		old := *setting
		old.GameStopHour = "13:00"
		inner.On("GetSetting", ctx, entities.GameTypeLao).Return(&old, nil).Once()
		got, err := repo.GetSetting(ctx, entities.GameTypeLao)
		require.NoError(t, err)
		assert.Equal(t, "13:00", got.GameStopHour)

		invalidator := NewSettingsCacheInvalidator(client)
		require.NoError(t, invalidator.InvalidateGame(ctx, entities.GameTypeLao))

		exists, err := client.Exists(ctx, settingKey(entities.GameTypeLao), permissionKey(entities.GameTypeLao)).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)

		committed := *setting
		committed.GameStopHour = "14:30"
		inner.On("GetSetting", ctx, entities.GameTypeLao).Return(&committed, nil).Once()
		got, err = repo.GetSetting(ctx, entities.GameTypeLao)
		require.NoError(t, err)
		assert.Equal(t, "14:30", got.GameStopHour)
	})

	t.Run("missing rows are not cached", func(t *testing.T) {
		inner.On("GetSetting", ctx, entities.GameTypeMalay).Return(nil, nil).Twice()

		for i := 0; i < 2; i++ {
			got, err := repo.GetSetting(ctx, entities.GameTypeMalay)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
		exists, err := client.Exists(ctx, settingKey(entities.GameTypeMalay)).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
