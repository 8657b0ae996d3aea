package repository

import (
	"context"
	"errors"
	"testing"

	"lotto/domain/entities"
	"lotto/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	agent := testutil.CreateTestAgent("agent")
	require.NoError(t, repo.Create(ctx, agent))
	assert.NotZero(t, agent.ID)

	player := testutil.CreateTestUser("player", "1000.5")
	player.ReferredBy = &agent.ID
	require.NoError(t, repo.Create(ctx, player))

	got, err := repo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "player", got.Username)
	assert.Equal(t, "1000.50", got.AvailableAmount.StringFixed(2))
	require.NotNil(t, got.ReferredBy)
	assert.Equal(t, agent.ID, *got.ReferredBy)

	refreshedAgent, err := repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshedAgent.ReferralCount)

	missing, err := repo.GetByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, testutil.CreateTestUser("player", "0"))
	var validation *entities.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestUserRepository_AdjustAvailableAmount(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUser("player", "100")
	require.NoError(t, repo.Create(ctx, user))

	t.Run("debit within balance", func(t *testing.T) {
		balance, applied, err := repo.AdjustAvailableAmount(ctx, user.ID, decimal.RequireFromString("-90.25"))
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, "9.75", balance.StringFixed(2))
	})

	t.Run("debit below zero is not applied", func(t *testing.T) {
		_, applied, err := repo.AdjustAvailableAmount(ctx, user.ID, decimal.RequireFromString("-9.76"))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "9.75", got.AvailableAmount.StringFixed(2))
	})

	t.Run("debit to exactly zero", func(t *testing.T) {
		balance, applied, err := repo.AdjustAvailableAmount(ctx, user.ID, decimal.RequireFromString("-9.75"))
		require.NoError(t, err)
		assert.True(t, applied)
		assert.True(t, balance.IsZero())
	})

	t.Run("missing user", func(t *testing.T) {
		_, applied, err := repo.AdjustAvailableAmount(ctx, 424242, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.False(t, applied)
	})
}
