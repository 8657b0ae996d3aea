package services

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DrawResultService records published draw results. A result is immutable once stored.
type DrawResultService struct {
	drawRepo       interfaces.DrawRepository
	settingsRepo   interfaces.GameSettingsRepository
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
	catalog        *GameCatalog
	opts           EngineOptions
}

// NewDrawResultService creates a new DrawResultService
func NewDrawResultService(
	drawRepo interfaces.DrawRepository,
	settingsRepo interfaces.GameSettingsRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
	opts EngineOptions,
) *DrawResultService {
	return &DrawResultService{
		drawRepo:       drawRepo,
		settingsRepo:   settingsRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
		catalog:        NewGameCatalog(),
		opts:           opts,
	}
}

// PublishResult stores a result and moves the draw to result_published.
// Publishing identical numbers again is a no-op; different numbers conflict.
// A new result is refused while the draw still accepts plays.
func (s *DrawResultService) PublishResult(ctx context.Context, result *entities.DrawResult) (*entities.Draw, error) {
	if err := s.ValidateResult(result); err != nil {
		return nil, err
	}
	if result.PublishedAt.IsZero() {
		result.PublishedAt = s.clock.Now()
	}

	draw, err := s.drawRepo.Get(ctx, result.GameType, result.GameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw != nil && draw.Result != nil {
		return s.compareStored(draw, result)
	}

	setting, err := s.settingsRepo.GetSetting(ctx, result.GameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get game setting: %w", err)
	}
	if setting == nil {
		return nil, &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("game %s is not initialized", result.GameType)}
	}
	if err := checkDrawClosed(s.clock.Now(), setting, result.GameType, result.GameNumber, s.opts.location()); err != nil {
		return nil, err
	}

	stored, err := s.drawRepo.SaveResult(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to save draw result: %w", err)
	}

	draw, err = s.drawRepo.Get(ctx, result.GameType, result.GameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, fmt.Errorf("draw %s missing after saving result", entities.DrawKey(result.GameType, result.GameNumber))
	}
	if !stored {
		return s.compareStored(draw, result)
	}

	if err := s.eventPublisher.Publish(events.ResultPublishedEvent{Result: *result}); err != nil {
		log.WithError(err).Error("Failed to publish result published event")
	}

	log.WithFields(log.Fields{
		"draw":     entities.DrawKey(result.GameType, result.GameNumber),
		"subGames": len(result.Results),
	}).Info("Draw result published")

	return draw, nil
}

// ValidateResult checks a result's shape against the game type's play types
func (s *DrawResultService) ValidateResult(result *entities.DrawResult) error {
	return result.Validate(s.catalog.Offers)
}

func (s *DrawResultService) compareStored(draw *entities.Draw, result *entities.DrawResult) (*entities.Draw, error) {
	if draw.Result.SameNumbers(result) {
		return draw, nil
	}
	return nil, &entities.ConflictError{Kind: entities.ConflictResultMismatch, Key: entities.DrawKey(result.GameType, result.GameNumber)}
}

var _ interfaces.DrawResultService = (*DrawResultService)(nil)
