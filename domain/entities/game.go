package entities

import "fmt"

// GameType identifies one lottery product
type GameType string

const (
	GameTypeThaiGov GameType = "thai_gov"
	GameTypeLao     GameType = "lao"
	GameTypeHanoi   GameType = "hanoi"
	GameTypeMalay   GameType = "malay"
)

// AllGameTypes lists every supported game type
var AllGameTypes = []GameType{GameTypeThaiGov, GameTypeLao, GameTypeHanoi, GameTypeMalay}

// IsValid returns true if the game type is a supported product
func (g GameType) IsValid() bool {
	switch g {
	case GameTypeThaiGov, GameTypeLao, GameTypeHanoi, GameTypeMalay:
		return true
	}
	return false
}

// TicketPrefix returns the prefix used in ticket numbers for this game type
func (g GameType) TicketPrefix() string {
	switch g {
	case GameTypeThaiGov:
		return "TG"
	case GameTypeLao:
		return "LA"
	case GameTypeHanoi:
		return "HN"
	case GameTypeMalay:
		return "MY"
	default:
		return "XX"
	}
}

// String returns the string representation of the game type
func (g GameType) String() string {
	return string(g)
}

// PlayType identifies a sub-game a ticket is played on
type PlayType string

const (
	PlayTypeFirstPrize       PlayType = "first_prize"
	PlayTypeFirstPrizeSingle PlayType = "first_prize_single"
	PlayTypeFirstPrizeTotal  PlayType = "first_prize_total"

	PlayTypeThreeUp       PlayType = "three_up"
	PlayTypeThreeUpSingle PlayType = "three_up_single"
	PlayTypeThreeUpTotal  PlayType = "three_up_total"

	PlayTypeTwoUp       PlayType = "two_up"
	PlayTypeTwoUpSingle PlayType = "two_up_single"
	PlayTypeTwoUpTotal  PlayType = "two_up_total"

	PlayTypeTwoDown       PlayType = "two_down"
	PlayTypeTwoDownSingle PlayType = "two_down_single"
	PlayTypeTwoDownTotal  PlayType = "two_down_total"
)

// PlayVariant distinguishes the full-number game from its reduced sub-games
type PlayVariant string

const (
	PlayVariantStraight PlayVariant = "straight"
	PlayVariantSingle   PlayVariant = "single"
	PlayVariantTotal    PlayVariant = "total"
)

// MatchKind is the way a number entry matched a draw result
type MatchKind string

const (
	MatchKindStraight MatchKind = "straight"
	MatchKindRumble   MatchKind = "rumble"
)

type playTypeInfo struct {
	base    PlayType
	variant PlayVariant
	digits  int
}

var playTypeTable = map[PlayType]playTypeInfo{
	PlayTypeFirstPrize:       {PlayTypeFirstPrize, PlayVariantStraight, 6},
	PlayTypeFirstPrizeSingle: {PlayTypeFirstPrize, PlayVariantSingle, 1},
	PlayTypeFirstPrizeTotal:  {PlayTypeFirstPrize, PlayVariantTotal, 1},
	PlayTypeThreeUp:          {PlayTypeThreeUp, PlayVariantStraight, 3},
	PlayTypeThreeUpSingle:    {PlayTypeThreeUp, PlayVariantSingle, 1},
	PlayTypeThreeUpTotal:     {PlayTypeThreeUp, PlayVariantTotal, 1},
	PlayTypeTwoUp:            {PlayTypeTwoUp, PlayVariantStraight, 2},
	PlayTypeTwoUpSingle:      {PlayTypeTwoUp, PlayVariantSingle, 1},
	PlayTypeTwoUpTotal:       {PlayTypeTwoUp, PlayVariantTotal, 1},
	PlayTypeTwoDown:          {PlayTypeTwoDown, PlayVariantStraight, 2},
	PlayTypeTwoDownSingle:    {PlayTypeTwoDown, PlayVariantSingle, 1},
	PlayTypeTwoDownTotal:     {PlayTypeTwoDown, PlayVariantTotal, 1},
}

// IsValid returns true if the play type is known
func (p PlayType) IsValid() bool {
	_, ok := playTypeTable[p]
	return ok
}

// Base returns the full-number play type this play type derives from
func (p PlayType) Base() PlayType {
	if info, ok := playTypeTable[p]; ok {
		return info.base
	}
	return p
}

// Variant returns whether this is a straight, single-digit or total-digit play
func (p PlayType) Variant() PlayVariant {
	if info, ok := playTypeTable[p]; ok {
		return info.variant
	}
	return ""
}

// DigitLength returns the number of digits a played number must have
func (p PlayType) DigitLength() int {
	return playTypeTable[p].digits
}

// SupportsRumble returns true if permutation stakes are accepted for this play type
func (p PlayType) SupportsRumble() bool {
	return p == PlayTypeFirstPrize || p == PlayTypeThreeUp
}

// IsSingleDigit returns true for single-digit sub-games
func (p PlayType) IsSingleDigit() bool {
	return p.Variant() == PlayVariantSingle
}

// IsTotalDigit returns true for digit-total sub-games
func (p PlayType) IsTotalDigit() bool {
	return p.Variant() == PlayVariantTotal
}

// String returns the string representation of the play type
func (p PlayType) String() string {
	return string(p)
}

// DrawKey returns the identifier of a draw, used as ledger reason and lock key
func DrawKey(gameType GameType, gameNumber string) string {
	return fmt.Sprintf("%s/%s", gameType, gameNumber)
}
