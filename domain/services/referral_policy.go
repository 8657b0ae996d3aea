package services

import (
	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// ReferralDecision is the evaluated eligibility table for a referral bonus.
// Each flag is computed up front; the bonus is paid only when all hold.
type ReferralDecision struct {
	HasReferrer      bool
	ReferrerFound    bool
	ReferrerRoleOK   bool
	ReferrerActive   bool
	NotSystemAccount bool
	PositiveBonus    bool

	ReferrerID int64
	Amount     decimal.Decimal
}

// Eligible returns true when every condition of the table holds
func (d ReferralDecision) Eligible() bool {
	return d.HasReferrer &&
		d.ReferrerFound &&
		d.ReferrerRoleOK &&
		d.ReferrerActive &&
		d.NotSystemAccount &&
		d.PositiveBonus
}

// SkipReason names the first failed condition, or "" when eligible
func (d ReferralDecision) SkipReason() string {
	switch {
	case !d.HasReferrer:
		return "no_referrer"
	case !d.ReferrerFound:
		return "referrer_not_found"
	case !d.ReferrerRoleOK:
		return "referrer_role"
	case !d.ReferrerActive:
		return "referrer_blocked"
	case !d.NotSystemAccount:
		return "system_account"
	case !d.PositiveBonus:
		return "zero_bonus"
	default:
		return ""
	}
}

// EvaluateReferral builds the decision table for a purchase. referrer is nil
// when the purchaser's referrer could not be loaded.
func EvaluateReferral(purchaser, referrer *entities.User, paidAmount, bonusPercent decimal.Decimal, systemAccountID int64) ReferralDecision {
	d := ReferralDecision{
		HasReferrer: purchaser != nil && purchaser.HasReferrer(),
		Amount:      entities.PercentOf(paidAmount, bonusPercent),
	}
	if d.HasReferrer {
		d.ReferrerID = *purchaser.ReferredBy
	}

	d.ReferrerFound = referrer != nil
	if referrer != nil {
		d.ReferrerRoleOK = referrer.Role == entities.UserRoleAgent || referrer.Role == entities.UserRoleUser
		d.ReferrerActive = !referrer.BlockedByAdmin
		d.NotSystemAccount = referrer.ID != systemAccountID
	}
	d.PositiveBonus = d.Amount.IsPositive()
	return d
}
