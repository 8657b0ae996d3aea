package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerEntryRepository implements the append-only mutation ledger
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// NewLedgerEntryRepositoryScoped creates a ledger entry repository bound to a transaction
func NewLedgerEntryRepositoryScoped(tx Queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Append inserts a ledger entry and fills its id and creation time
func (r *LedgerEntryRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}
	if entry.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO ledger_entries (
			user_id, actor_id, collection, field, delta, balance_after,
			update_type, transaction_type, reason, idempotency_key, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err = r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.ActorID,
		entry.Collection,
		entry.Field,
		entry.Delta,
		entry.BalanceAfter,
		entry.UpdateType,
		entry.TransactionType,
		entry.Reason,
		entry.IdempotencyKey,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if isUniqueViolation(err, "ledger_entries_idempotency_key_key") {
		return fmt.Errorf("ledger entry %q already recorded: %w", *entry.IdempotencyKey, err)
	}
	return wrapErr("append ledger entry", err)
}

// ExistsByIdempotencyKey reports whether a mutation with this key was already applied
func (r *LedgerEntryRepository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE idempotency_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, wrapErr("check idempotency key", err)
	}
	return exists, nil
}

// GetByUser returns a user's most recent entries, newest first
func (r *LedgerEntryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, user_id, actor_id, collection, field, delta, balance_after,
		       update_type, transaction_type, reason, idempotency_key, metadata, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get ledger entries of user %d", userID), err)
	}
	defer rows.Close()

	entries := make([]*entities.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate ledger entries", err)
	}
	return entries, nil
}

// SumByReason totals the deltas recorded for a reason and transaction type
func (r *LedgerEntryRepository) SumByReason(ctx context.Context, reason string, transactionType entities.TransactionType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE reason = $1 AND transaction_type = $2`,
		reason, transactionType,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, wrapErr("sum ledger entries", err)
	}
	return total, nil
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var e entities.LedgerEntry
	var metadata []byte
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.ActorID,
		&e.Collection,
		&e.Field,
		&e.Delta,
		&e.BalanceAfter,
		&e.UpdateType,
		&e.TransactionType,
		&e.Reason,
		&e.IdempotencyKey,
		&metadata,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
		}
	}
	return &e, nil
}
