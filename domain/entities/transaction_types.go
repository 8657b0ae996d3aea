package entities

// TransactionType represents the business cause of a balance change
type TransactionType string

// All transaction types supported by the ledger
const (
	// Play transactions
	TransactionTypePlayDebit TransactionType = "play_debit"
	TransactionTypeDrawWin   TransactionType = "draw_win"

	// Referral transactions
	TransactionTypeReferralBonus TransactionType = "referral_bonus"

	// Administrative transactions
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// IsWinType returns true if the transaction type represents a payout
func (tt TransactionType) IsWinType() bool {
	return tt == TransactionTypeDrawWin
}

// IsPlayRelated returns true if the transaction type moves stake or winnings
func (tt TransactionType) IsPlayRelated() bool {
	return tt == TransactionTypePlayDebit || tt == TransactionTypeDrawWin
}

// IsSystemGenerated returns true if no player action caused the transaction
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeDrawWin ||
		tt == TransactionTypeReferralBonus
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
