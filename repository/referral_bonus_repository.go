package repository

import (
	"context"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ReferralBonusRepository records referral credits keyed by ticket number
type ReferralBonusRepository struct {
	q Queryable
}

// NewReferralBonusRepository creates a new referral bonus repository
func NewReferralBonusRepository(db *database.DB) *ReferralBonusRepository {
	return &ReferralBonusRepository{q: db.Pool}
}

// NewReferralBonusRepositoryScoped creates a referral bonus repository bound to a transaction
func NewReferralBonusRepositoryScoped(tx Queryable) *ReferralBonusRepository {
	return &ReferralBonusRepository{q: tx}
}

// Create inserts a bonus row. created is false when the ticket already has one.
func (r *ReferralBonusRepository) Create(ctx context.Context, bonus *entities.ReferralBonus) (bool, error) {
	query := `
		INSERT INTO referral_bonuses (ticket_number, referrer_id, purchaser_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticket_number) DO NOTHING
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query, bonus.TicketNumber, bonus.ReferrerID, bonus.PurchaserID, bonus.Amount).Scan(&bonus.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(fmt.Sprintf("create referral bonus for %s", bonus.TicketNumber), err)
	}
	return true, nil
}

// MarkCredited links a bonus to the ledger entry that paid it
func (r *ReferralBonusRepository) MarkCredited(ctx context.Context, ticketNumber string, ledgerEntryID int64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE referral_bonuses SET ledger_entry_id = $2 WHERE ticket_number = $1 AND ledger_entry_id IS NULL`,
		ticketNumber, ledgerEntryID,
	)
	if err != nil {
		return wrapErr(fmt.Sprintf("mark referral bonus %s credited", ticketNumber), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referral bonus %s missing or already credited", ticketNumber)
	}
	return nil
}

// GetByTicketNumber returns the bonus recorded for a ticket, or nil
func (r *ReferralBonusRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.ReferralBonus, error) {
	query := `
		SELECT ticket_number, referrer_id, purchaser_id, amount, ledger_entry_id, created_at
		FROM referral_bonuses
		WHERE ticket_number = $1
	`
	var b entities.ReferralBonus
	err := r.q.QueryRow(ctx, query, ticketNumber).Scan(
		&b.TicketNumber,
		&b.ReferrerID,
		&b.PurchaserID,
		&b.Amount,
		&b.LedgerEntryID,
		&b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get referral bonus %s", ticketNumber), err)
	}
	return &b, nil
}
