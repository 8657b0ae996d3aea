package repository

import (
	"context"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"
)

// TicketCounterRepository issues ticket numbers from per-prefix counters
type TicketCounterRepository struct {
	q Queryable
}

// NewTicketCounterRepository creates a new ticket counter repository
func NewTicketCounterRepository(db *database.DB) *TicketCounterRepository {
	return &TicketCounterRepository{q: db.Pool}
}

// NewTicketCounterRepositoryScoped creates a ticket counter repository bound to a transaction
func NewTicketCounterRepositoryScoped(tx Queryable) *TicketCounterRepository {
	return &TicketCounterRepository{q: tx}
}

// Next returns <PREFIX>-<YYYYMMDD>-<8 digit counter> for a game type and draw date
func (r *TicketCounterRepository) Next(ctx context.Context, gameType entities.GameType, drawDate entities.DrawDateParts) (string, error) {
	prefix := fmt.Sprintf("%s-%s", gameType.TicketPrefix(), drawDate.Compact())

	query := `
		INSERT INTO ticket_counters (prefix, last_value)
		VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = ticket_counters.last_value + 1
		RETURNING last_value
	`
	var value int64
	if err := r.q.QueryRow(ctx, query, prefix).Scan(&value); err != nil {
		return "", wrapErr(fmt.Sprintf("advance ticket counter %s", prefix), err)
	}
	return fmt.Sprintf("%s-%08d", prefix, value), nil
}
