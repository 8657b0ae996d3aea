package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
)

// SettlementRepository persists write-once settlement summaries
type SettlementRepository struct {
	q Queryable
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *database.DB) *SettlementRepository {
	return &SettlementRepository{q: db.Pool}
}

// NewSettlementRepositoryScoped creates a settlement repository bound to a transaction
func NewSettlementRepositoryScoped(tx Queryable) *SettlementRepository {
	return &SettlementRepository{q: tx}
}

// Create inserts a summary. A second summary for the same draw is an
// AlreadySettled conflict.
func (r *SettlementRepository) Create(ctx context.Context, summary *entities.SettlementSummary) error {
	winners, err := json.Marshal(summary.Winners)
	if err != nil {
		return fmt.Errorf("failed to marshal winners: %w", err)
	}
	losers, err := json.Marshal(summary.Losers)
	if err != nil {
		return fmt.Errorf("failed to marshal losers: %w", err)
	}

	query := `
		INSERT INTO settlement_summaries (
			game_type, game_number, total_played_amount, total_discount, total_paid_amount_in_game,
			total_winning_amount, total_actual_winning_amount, agent_commission, profit,
			winners, losers, ticket_count, winner_count, loser_count, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err = r.q.QueryRow(ctx, query,
		summary.GameType,
		summary.GameNumber,
		summary.TotalPlayedAmount,
		summary.TotalDiscount,
		summary.TotalPaidAmountInGame,
		summary.TotalWinningAmount,
		summary.TotalActualWinningAmount,
		summary.AgentCommission,
		summary.Profit,
		winners,
		losers,
		summary.TicketCount,
		summary.WinnerCount,
		summary.LoserCount,
		summary.CreatedAt,
	).Scan(&summary.ID)
	if isUniqueViolation(err, "settlement_summaries_draw_unique") {
		return &entities.ConflictError{Kind: entities.ConflictAlreadySettled, Key: entities.DrawKey(summary.GameType, summary.GameNumber)}
	}
	return wrapErr("create settlement summary", err)
}

// GetByDraw returns the summary of a draw, or nil when it has not been settled
func (r *SettlementRepository) GetByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error) {
	query := `
		SELECT id, game_type, game_number, total_played_amount, total_discount, total_paid_amount_in_game,
		       total_winning_amount, total_actual_winning_amount, agent_commission, profit,
		       winners, losers, ticket_count, winner_count, loser_count, created_at
		FROM settlement_summaries
		WHERE game_type = $1 AND game_number = $2
	`
	var s entities.SettlementSummary
	var winners, losers []byte
	err := r.q.QueryRow(ctx, query, gameType, gameNumber).Scan(
		&s.ID,
		&s.GameType,
		&s.GameNumber,
		&s.TotalPlayedAmount,
		&s.TotalDiscount,
		&s.TotalPaidAmountInGame,
		&s.TotalWinningAmount,
		&s.TotalActualWinningAmount,
		&s.AgentCommission,
		&s.Profit,
		&winners,
		&losers,
		&s.TicketCount,
		&s.WinnerCount,
		&s.LoserCount,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get settlement of %s", entities.DrawKey(gameType, gameNumber)), err)
	}

	if err := json.Unmarshal(winners, &s.Winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal winners: %w", err)
	}
	if err := json.Unmarshal(losers, &s.Losers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal losers: %w", err)
	}
	return &s, nil
}
