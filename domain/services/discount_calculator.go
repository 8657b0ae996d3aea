package services

import (
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// DiscountTier names the discount percentage column a play is priced with
type DiscountTier string

const (
	DiscountTierStandard DiscountTier = "standard"
	DiscountTierSpecial  DiscountTier = "special"
	DiscountTierLastDay  DiscountTier = "last_day"
)

// DiscountInput carries everything the discount of one play depends on
type DiscountInput struct {
	GameType        entities.GameType
	PlayType        entities.PlayType
	StakedAmount    decimal.Decimal
	Setting         *entities.GameSetting
	Permission      *entities.GamePermission
	SpecialDiscount bool
	Now             time.Time
	Draw            entities.DrawDateParts
}

// DiscountCalculator contains pure business logic for play discounts
type DiscountCalculator struct{}

// NewDiscountCalculator creates a new DiscountCalculator
func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

// InLastDayWindow returns true when now is on the draw day and before the stop time
func (c *DiscountCalculator) InLastDayWindow(in DiscountInput) bool {
	if !in.Draw.IsSameDay(in.Now) {
		return false
	}
	if in.Setting == nil {
		return false
	}
	hour, minute, err := in.Setting.StopTime()
	if err != nil {
		return false
	}
	return in.Now.Before(in.Draw.At(hour, minute, in.Now.Location()))
}

// SelectTier decides which discount percentage applies. Last-day wins over special.
func (c *DiscountCalculator) SelectTier(in DiscountInput) DiscountTier {
	if in.Permission != nil &&
		in.Permission.EnableLastDayDiscounts &&
		!in.Permission.RemovePlayDiscountOnLastDay &&
		c.InLastDayWindow(in) {
		return DiscountTierLastDay
	}
	if in.SpecialDiscount {
		return DiscountTierSpecial
	}
	return DiscountTierStandard
}

// ComputeDiscount returns round2(staked * pct / 100) clamped to [0, staked].
// Unknown play types get no discount.
func (c *DiscountCalculator) ComputeDiscount(in DiscountInput) decimal.Decimal {
	if in.Setting == nil || !in.StakedAmount.IsPositive() {
		return decimal.Zero
	}

	rates, ok := in.Setting.DiscountRatesFor(in.PlayType)
	if !ok {
		return decimal.Zero
	}

	var percent decimal.Decimal
	switch c.SelectTier(in) {
	case DiscountTierLastDay:
		percent = rates.LastDay
	case DiscountTierSpecial:
		percent = rates.Special
	default:
		percent = rates.Standard
	}

	discount := entities.PercentOf(in.StakedAmount, percent)
	return entities.ClampMoney(discount, decimal.Zero, in.StakedAmount)
}
