package services

import "lotto/domain/entities"

var (
	standardPlayTypes = []entities.PlayType{
		entities.PlayTypeThreeUp,
		entities.PlayTypeThreeUpSingle,
		entities.PlayTypeThreeUpTotal,
		entities.PlayTypeTwoUp,
		entities.PlayTypeTwoUpSingle,
		entities.PlayTypeTwoUpTotal,
		entities.PlayTypeTwoDown,
		entities.PlayTypeTwoDownSingle,
		entities.PlayTypeTwoDownTotal,
	}

	firstPrizePlayTypes = []entities.PlayType{
		entities.PlayTypeFirstPrize,
		entities.PlayTypeFirstPrizeSingle,
		entities.PlayTypeFirstPrizeTotal,
	}
)

// GameCatalog knows which play types each game type offers and which of them
// a permission record enables. It has no state and no side effects.
type GameCatalog struct{}

// NewGameCatalog creates a new GameCatalog
func NewGameCatalog() *GameCatalog {
	return &GameCatalog{}
}

// PlayTypesFor returns the play types offered by a game type
func (c *GameCatalog) PlayTypesFor(gameType entities.GameType) []entities.PlayType {
	switch gameType {
	case entities.GameTypeThaiGov:
		out := make([]entities.PlayType, 0, len(firstPrizePlayTypes)+len(standardPlayTypes))
		out = append(out, firstPrizePlayTypes...)
		return append(out, standardPlayTypes...)
	case entities.GameTypeLao, entities.GameTypeHanoi, entities.GameTypeMalay:
		return append([]entities.PlayType(nil), standardPlayTypes...)
	default:
		return nil
	}
}

// Offers returns true if the game type offers the play type
func (c *GameCatalog) Offers(gameType entities.GameType, playType entities.PlayType) bool {
	for _, pt := range c.PlayTypesFor(gameType) {
		if pt == playType {
			return true
		}
	}
	return false
}

// IsPlayTypeEnabled checks whether a play type may currently be played.
// Single-digit play types need IsAvailableSingleDigitGame and total-digit play
// types need IsAvailableGameTotal.
func (c *GameCatalog) IsPlayTypeEnabled(gameType entities.GameType, playType entities.PlayType, permission *entities.GamePermission) bool {
	if permission == nil || !c.Offers(gameType, playType) {
		return false
	}

	switch playType.Variant() {
	case entities.PlayVariantSingle:
		return permission.IsAvailableSingleDigitGame
	case entities.PlayVariantTotal:
		return permission.IsAvailableGameTotal
	default:
		return true
	}
}

// EnabledPlayTypes returns the offered play types the permission enables
func (c *GameCatalog) EnabledPlayTypes(gameType entities.GameType, permission *entities.GamePermission) []entities.PlayType {
	var enabled []entities.PlayType
	for _, pt := range c.PlayTypesFor(gameType) {
		if c.IsPlayTypeEnabled(gameType, pt, permission) {
			enabled = append(enabled, pt)
		}
	}
	return enabled
}
