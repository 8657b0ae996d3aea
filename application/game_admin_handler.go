package application

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/services"

	log "github.com/sirupsen/logrus"
)

// GameConfig is the full administrative configuration of one game type
type GameConfig struct {
	Setting    *entities.GameSetting
	Permission *entities.GamePermission
	PlayTypes  []entities.PlayType
}

// GameAdminHandler reads and replaces game settings and permissions
type GameAdminHandler struct {
	uowFactory  UnitOfWorkFactory
	invalidator SettingsInvalidator
	catalog     *services.GameCatalog
	opts        HandlerOptions
}

// NewGameAdminHandler creates a new GameAdminHandler. invalidator may be nil
// when no settings cache is configured.
func NewGameAdminHandler(uowFactory UnitOfWorkFactory, invalidator SettingsInvalidator, opts HandlerOptions) *GameAdminHandler {
	return &GameAdminHandler{
		uowFactory:  uowFactory,
		invalidator: invalidator,
		catalog:     services.NewGameCatalog(),
		opts:        opts,
	}
}

// GetGame returns the configuration of a game type with its enabled play types
func (h *GameAdminHandler) GetGame(ctx context.Context, gameType entities.GameType) (*GameConfig, error) {
	if !gameType.IsValid() {
		return nil, &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", gameType)}
	}

	config := &GameConfig{}
	err := withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		var err error
		if config.Setting, err = uow.GameSettingsRepository().GetSetting(ctx, gameType); err != nil {
			return err
		}
		config.Permission, err = uow.GameSettingsRepository().GetPermission(ctx, gameType)
		return err
	})
	if err != nil {
		return nil, err
	}
	config.PlayTypes = h.catalog.EnabledPlayTypes(gameType, config.Permission)
	return config, nil
}

// UpdateSetting replaces the setting of a game type
func (h *GameAdminHandler) UpdateSetting(ctx context.Context, setting *entities.GameSetting) error {
	if !setting.GameType.IsValid() {
		return &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", setting.GameType)}
	}
	for playType := range setting.Discounts {
		if !h.catalog.Offers(setting.GameType, playType) {
			return &entities.ValidationError{Field: "discounts", Message: fmt.Sprintf("%s does not offer %s", setting.GameType, playType)}
		}
	}
	for playType := range setting.Payouts {
		if !h.catalog.Offers(setting.GameType, playType) {
			return &entities.ValidationError{Field: "payouts", Message: fmt.Sprintf("%s does not offer %s", setting.GameType, playType)}
		}
	}

	err := withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		return uow.GameSettingsRepository().UpsertSetting(ctx, setting)
	})
	if err != nil {
		return err
	}
	h.invalidate(ctx, setting.GameType)

	log.WithFields(log.Fields{
		"gameType":     setting.GameType,
		"gameStopHour": setting.GameStopHour,
	}).Info("Game setting updated")
	return nil
}

// UpdatePermission replaces the permission flags of a game type
func (h *GameAdminHandler) UpdatePermission(ctx context.Context, permission *entities.GamePermission) error {
	if !permission.GameType.IsValid() {
		return &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", permission.GameType)}
	}

	err := withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		return uow.GameSettingsRepository().UpsertPermission(ctx, permission)
	})
	if err != nil {
		return err
	}
	h.invalidate(ctx, permission.GameType)

	log.WithFields(log.Fields{
		"gameType":       permission.GameType,
		"acceptsPlays":   permission.AcceptsPlays(),
		"lastDayEnabled": permission.EnableLastDayDiscounts,
	}).Info("Game permission updated")
	return nil
}

// invalidate evicts the committed game type from the cache. A failure only
// delays the change until the cache entry expires.
func (h *GameAdminHandler) invalidate(ctx context.Context, gameType entities.GameType) {
	if h.invalidator == nil {
		return
	}
	if err := h.invalidator.InvalidateGame(ctx, gameType); err != nil {
		log.WithFields(log.Fields{"gameType": gameType, "error": err}).Warn("Failed to invalidate cached game settings")
	}
}
