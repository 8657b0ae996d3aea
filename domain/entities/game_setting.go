package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountRates holds the discount percentages of one play type
type DiscountRates struct {
	Standard decimal.Decimal `json:"standard"`
	Special  decimal.Decimal `json:"special"`
	LastDay  decimal.Decimal `json:"last_day"`
}

// PayoutRates holds the winning payout percentages of one play type
type PayoutRates struct {
	Straight decimal.Decimal `json:"straight"`
	Rumble   decimal.Decimal `json:"rumble"`
}

// GameSetting is the administrative configuration of a game type
type GameSetting struct {
	GameType               GameType                   `db:"game_type"`
	Discounts              map[PlayType]DiscountRates `db:"discounts"`
	Payouts                map[PlayType]PayoutRates   `db:"payouts"`
	GameStopHour           string                     `db:"game_stop_hour"` // "HH:MM" in the engine timezone
	MinimumAmountForPlay   decimal.Decimal            `db:"minimum_amount_for_play"`
	AgentCommissionPercent decimal.Decimal            `db:"agent_commission_percent"`
	UpdatedAt              time.Time                  `db:"updated_at"`
}

// DiscountRatesFor returns the discount rates configured for a play type
func (s *GameSetting) DiscountRatesFor(playType PlayType) (DiscountRates, bool) {
	rates, ok := s.Discounts[playType]
	return rates, ok
}

// WinningPercent returns the payout percentage for a play type and match kind.
// Unconfigured play types pay nothing.
func (s *GameSetting) WinningPercent(playType PlayType, kind MatchKind) decimal.Decimal {
	rates, ok := s.Payouts[playType]
	if !ok {
		return decimal.Zero
	}
	if kind == MatchKindRumble {
		return rates.Rumble
	}
	return rates.Straight
}

// StopTime parses GameStopHour into hour and minute
func (s *GameSetting) StopTime() (int, int, error) {
	t, err := time.Parse("15:04", s.GameStopHour)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid game stop hour %q: %w", s.GameStopHour, err)
	}
	return t.Hour(), t.Minute(), nil
}

// GamePermission holds the availability flags of a game type
type GamePermission struct {
	GameType                    GameType  `db:"game_type"`
	IsAvailableLotteryGame      bool      `db:"is_available_lottery_game"`
	CanPlayLotteryGame          bool      `db:"can_play_lottery_game"`
	IsAvailableSingleDigitGame  bool      `db:"is_available_single_digit_game"`
	IsAvailableGameTotal        bool      `db:"is_available_game_total"`
	EnableLastDayDiscounts      bool      `db:"enable_last_day_discounts"`
	RemovePlayDiscountOnLastDay bool      `db:"remove_play_discount_on_last_day"`
	UpdatedAt                   time.Time `db:"updated_at"`
}

// AcceptsPlays returns true if the game is enabled and play is currently allowed
func (p *GamePermission) AcceptsPlays() bool {
	return p.IsAvailableLotteryGame && p.CanPlayLotteryGame
}
