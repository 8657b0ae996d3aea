package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// LedgerFieldAvailableAmount is the only balance field the engine mutates
	LedgerFieldAvailableAmount = "availableAmount"

	// LedgerCollectionUsers is the collection owning availableAmount
	LedgerCollectionUsers = "users"

	// UpdateTypeMoney tags monetary mutations
	UpdateTypeMoney = "MONEY"
)

// LedgerEntry is an append-only audit record of one balance mutation
type LedgerEntry struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	ActorID         int64           `db:"actor_id"`
	Collection      string          `db:"collection"`
	Field           string          `db:"field"`
	Delta           decimal.Decimal `db:"delta"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	UpdateType      string          `db:"update_type"`
	TransactionType TransactionType `db:"transaction_type"`
	Reason          string          `db:"reason"`
	IdempotencyKey  *string         `db:"idempotency_key"`
	Metadata        map[string]any  `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsCredit returns true if the entry increased the balance
func (e *LedgerEntry) IsCredit() bool {
	return e.Delta.IsPositive()
}

// IsDebit returns true if the entry decreased the balance
func (e *LedgerEntry) IsDebit() bool {
	return e.Delta.IsNegative()
}

// BalanceBefore derives the balance prior to the mutation
func (e *LedgerEntry) BalanceBefore() decimal.Decimal {
	return e.BalanceAfter.Sub(e.Delta)
}

// Validate performs basic validation on the entry
func (e *LedgerEntry) Validate() error {
	if e.Delta.IsZero() {
		return errors.New("delta cannot be zero")
	}
	if e.UserID == 0 {
		return errors.New("user is required")
	}
	if e.Field == "" {
		return errors.New("field is required")
	}
	return nil
}

// ReferralBonus records the referral credit owed for one ticket. The ticket
// number is its idempotency key.
type ReferralBonus struct {
	TicketNumber  string          `db:"ticket_number"`
	ReferrerID    int64           `db:"referrer_id"`
	PurchaserID   int64           `db:"purchaser_id"`
	Amount        decimal.Decimal `db:"amount"`
	LedgerEntryID *int64          `db:"ledger_entry_id"` // NULL until credited
	CreatedAt     time.Time       `db:"created_at"`
}

// IsCredited returns true once the bonus reached the referrer's balance
func (b *ReferralBonus) IsCredited() bool {
	return b.LedgerEntryID != nil
}
