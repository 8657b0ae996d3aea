package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
)

const ticketColumns = `id, ticket_number, user_id, game_type, play_type, game_number, numbers,
	played_amount, discount, paid_amount, is_original_ticket, settled_at, created_at`

// TicketRepository implements ticket persistence
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// NewTicketRepositoryScoped creates a ticket repository bound to a transaction
func NewTicketRepositoryScoped(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// Create inserts a ticket. A duplicate ticket number yields a ConflictError.
func (r *TicketRepository) Create(ctx context.Context, ticket *entities.Ticket) error {
	numbers, err := json.Marshal(ticket.Numbers)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket numbers: %w", err)
	}

	query := `
		INSERT INTO tickets (
			ticket_number, user_id, game_type, play_type, game_number, numbers,
			played_amount, discount, paid_amount, is_original_ticket
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err = r.q.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.UserID,
		ticket.GameType,
		ticket.PlayType,
		ticket.GameNumber,
		numbers,
		ticket.PlayedAmount,
		ticket.Discount,
		ticket.PaidAmount,
		ticket.IsOriginalTicket,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	if isUniqueViolation(err, "tickets_ticket_number_key") {
		return &entities.ConflictError{Kind: entities.ConflictTicketNumber, Key: ticket.TicketNumber}
	}
	return wrapErr("create ticket", err)
}

// GetByTicketNumber retrieves a ticket, returning nil when absent
func (r *TicketRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number = $1`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, ticketNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get ticket %s", ticketNumber), err)
	}
	return ticket, nil
}

// ListByDraw returns every ticket of a draw in purchase order
func (r *TicketRepository) ListByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) ([]*entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE game_type = $1 AND game_number = $2 ORDER BY id`
	return r.queryTickets(ctx, "list tickets of draw", query, gameType, gameNumber)
}

// List returns tickets matching the filter, newest first
func (r *TicketRepository) List(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error) {
	var conditions []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.GameType != nil {
		add("game_type = $%d", *filter.GameType)
	}
	if filter.GameNumber != nil {
		add("game_number = $%d", *filter.GameNumber)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + ticketColumns + ` FROM tickets`)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&b, " ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryTickets(ctx, "list tickets", b.String(), args...)
}

// MarkSettled stamps the listed tickets that are not settled yet
func (r *TicketRepository) MarkSettled(ctx context.Context, ticketIDs []int64, at time.Time) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE tickets SET settled_at = $2 WHERE id = ANY($1) AND settled_at IS NULL`,
		ticketIDs, at,
	)
	if err != nil {
		return 0, wrapErr("mark tickets settled", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, op, query string, args ...any) ([]*entities.Ticket, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	tickets := make([]*entities.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	var numbers []byte
	err := row.Scan(
		&t.ID,
		&t.TicketNumber,
		&t.UserID,
		&t.GameType,
		&t.PlayType,
		&t.GameNumber,
		&numbers,
		&t.PlayedAmount,
		&t.Discount,
		&t.PaidAmount,
		&t.IsOriginalTicket,
		&t.SettledAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(numbers, &t.Numbers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket numbers: %w", err)
	}
	return &t, nil
}
