package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GameSettingsRepository implements access to game settings and permissions
type GameSettingsRepository struct {
	q Queryable
}

// NewGameSettingsRepository creates a new game settings repository
func NewGameSettingsRepository(db *database.DB) *GameSettingsRepository {
	return &GameSettingsRepository{q: db.Pool}
}

// NewGameSettingsRepositoryScoped creates a game settings repository bound to a transaction
func NewGameSettingsRepositoryScoped(tx Queryable) *GameSettingsRepository {
	return &GameSettingsRepository{q: tx}
}

// GetSetting returns the setting of a game type, or nil when it was never configured
func (r *GameSettingsRepository) GetSetting(ctx context.Context, gameType entities.GameType) (*entities.GameSetting, error) {
	query := `
		SELECT game_type, discounts, payouts, game_stop_hour, minimum_amount_for_play,
		       agent_commission_percent, updated_at
		FROM game_settings
		WHERE game_type = $1
	`
	var s entities.GameSetting
	var discounts, payouts []byte
	err := r.q.QueryRow(ctx, query, gameType).Scan(
		&s.GameType,
		&discounts,
		&payouts,
		&s.GameStopHour,
		&s.MinimumAmountForPlay,
		&s.AgentCommissionPercent,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get game setting %s", gameType), err)
	}

	if err := json.Unmarshal(discounts, &s.Discounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal discounts of %s: %w", gameType, err)
	}
	if err := json.Unmarshal(payouts, &s.Payouts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payouts of %s: %w", gameType, err)
	}
	return &s, nil
}

// GetPermission returns the permission flags of a game type, or nil when never configured
func (r *GameSettingsRepository) GetPermission(ctx context.Context, gameType entities.GameType) (*entities.GamePermission, error) {
	query := `
		SELECT game_type, is_available_lottery_game, can_play_lottery_game,
		       is_available_single_digit_game, is_available_game_total,
		       enable_last_day_discounts, remove_play_discount_on_last_day, updated_at
		FROM game_permissions
		WHERE game_type = $1
	`
	var p entities.GamePermission
	err := r.q.QueryRow(ctx, query, gameType).Scan(
		&p.GameType,
		&p.IsAvailableLotteryGame,
		&p.CanPlayLotteryGame,
		&p.IsAvailableSingleDigitGame,
		&p.IsAvailableGameTotal,
		&p.EnableLastDayDiscounts,
		&p.RemovePlayDiscountOnLastDay,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get game permission %s", gameType), err)
	}
	return &p, nil
}

// UpsertSetting creates or replaces the setting of a game type
func (r *GameSettingsRepository) UpsertSetting(ctx context.Context, setting *entities.GameSetting) error {
	if _, _, err := setting.StopTime(); err != nil {
		return &entities.ValidationError{Field: "gameStopHour", Message: err.Error()}
	}
	discounts, err := json.Marshal(setting.Discounts)
	if err != nil {
		return fmt.Errorf("failed to marshal discounts: %w", err)
	}
	payouts, err := json.Marshal(setting.Payouts)
	if err != nil {
		return fmt.Errorf("failed to marshal payouts: %w", err)
	}

	query := `
		INSERT INTO game_settings (game_type, discounts, payouts, game_stop_hour,
		                           minimum_amount_for_play, agent_commission_percent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (game_type) DO UPDATE SET
			discounts = EXCLUDED.discounts,
			payouts = EXCLUDED.payouts,
			game_stop_hour = EXCLUDED.game_stop_hour,
			minimum_amount_for_play = EXCLUDED.minimum_amount_for_play,
			agent_commission_percent = EXCLUDED.agent_commission_percent,
			updated_at = NOW()
		RETURNING updated_at
	`
	err = r.q.QueryRow(ctx, query,
		setting.GameType,
		discounts,
		payouts,
		setting.GameStopHour,
		setting.MinimumAmountForPlay,
		setting.AgentCommissionPercent,
	).Scan(&setting.UpdatedAt)
	return wrapErr(fmt.Sprintf("upsert game setting %s", setting.GameType), err)
}

// UpsertPermission creates or replaces the permission flags of a game type
func (r *GameSettingsRepository) UpsertPermission(ctx context.Context, permission *entities.GamePermission) error {
	query := `
		INSERT INTO game_permissions (game_type, is_available_lottery_game, can_play_lottery_game,
		                              is_available_single_digit_game, is_available_game_total,
		                              enable_last_day_discounts, remove_play_discount_on_last_day, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (game_type) DO UPDATE SET
			is_available_lottery_game = EXCLUDED.is_available_lottery_game,
			can_play_lottery_game = EXCLUDED.can_play_lottery_game,
			is_available_single_digit_game = EXCLUDED.is_available_single_digit_game,
			is_available_game_total = EXCLUDED.is_available_game_total,
			enable_last_day_discounts = EXCLUDED.enable_last_day_discounts,
			remove_play_discount_on_last_day = EXCLUDED.remove_play_discount_on_last_day,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		permission.GameType,
		permission.IsAvailableLotteryGame,
		permission.CanPlayLotteryGame,
		permission.IsAvailableSingleDigitGame,
		permission.IsAvailableGameTotal,
		permission.EnableLastDayDiscounts,
		permission.RemovePlayDiscountOnLastDay,
	).Scan(&permission.UpdatedAt)
	return wrapErr(fmt.Sprintf("upsert game permission %s", permission.GameType), err)
}
