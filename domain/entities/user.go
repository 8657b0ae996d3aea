package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole is the account role of a platform user
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleAgent  UserRole = "agent"
	UserRoleUser   UserRole = "user"
	UserRoleSystem UserRole = "system"
)

// User is the wallet view of a platform account
type User struct {
	ID                     int64           `db:"id"`
	Username               string          `db:"username"`
	Role                   UserRole        `db:"role"`
	AvailableAmount        decimal.Decimal `db:"available_amount"`
	BlockedByAdmin         bool            `db:"blocked_by_admin"`
	ReferredBy             *int64          `db:"referred_by"`
	ReferralCount          int             `db:"referral_count"`
	AllowedSpecialDiscount bool            `db:"allowed_special_discount"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
}

// CanAfford checks if the user has enough available balance for an amount
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return u.AvailableAmount.GreaterThanOrEqual(amount)
}

// HasReferrer returns true if the user was referred by another account
func (u *User) HasReferrer() bool {
	return u.ReferredBy != nil && *u.ReferredBy > 0
}

// CanEarnReferralBonus returns true if the account may be credited referral bonuses
func (u *User) CanEarnReferralBonus() bool {
	if u.BlockedByAdmin {
		return false
	}
	return u.Role == UserRoleAgent || u.Role == UserRoleUser
}
