package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WinningDetail describes one winning ticket of a settled draw
type WinningDetail struct {
	TicketNumber       string          `json:"ticket_number"`
	UserID             int64           `json:"user_id"`
	PlayType           PlayType        `json:"play_type"`
	WinningNumbers     []string        `json:"winning_numbers"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	GrossWinningAmount decimal.Decimal `json:"gross_winning_amount"`
	CommissionAmount   decimal.Decimal `json:"commission_amount"`
	FinalWinningAmount decimal.Decimal `json:"final_winning_amount"`
}

// ParticipantDetail describes one non-winning ticket of a settled draw
type ParticipantDetail struct {
	TicketNumber string          `json:"ticket_number"`
	UserID       int64           `json:"user_id"`
	PlayType     PlayType        `json:"play_type"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
}

// SettlementSummary aggregates the outcome of one draw. It is written once.
type SettlementSummary struct {
	ID                       int64               `db:"id"`
	GameType                 GameType            `db:"game_type"`
	GameNumber               string              `db:"game_number"`
	TotalPlayedAmount        decimal.Decimal     `db:"total_played_amount"`
	TotalDiscount            decimal.Decimal     `db:"total_discount"`
	TotalPaidAmountInGame    decimal.Decimal     `db:"total_paid_amount_in_game"`
	TotalWinningAmount       decimal.Decimal     `db:"total_winning_amount"`        // gross
	TotalActualWinningAmount decimal.Decimal     `db:"total_actual_winning_amount"` // net of commission
	AgentCommission          decimal.Decimal     `db:"agent_commission"`
	Profit                   decimal.Decimal     `db:"profit"`
	Winners                  []WinningDetail     `db:"winners"`
	Losers                   []ParticipantDetail `db:"losers"`
	TicketCount              int                 `db:"ticket_count"`
	WinnerCount              int                 `db:"winner_count"`
	LoserCount               int                 `db:"loser_count"`
	CreatedAt                time.Time           `db:"created_at"`
}

// ProfitBalances checks profit = paid - net winnings - commission
func (s *SettlementSummary) ProfitBalances() bool {
	expected := s.TotalPaidAmountInGame.Sub(s.TotalActualWinningAmount).Sub(s.AgentCommission)
	return s.Profit.Equal(expected)
}

// TotalCredited sums the amounts owed to winners
func (s *SettlementSummary) TotalCredited() decimal.Decimal {
	total := decimal.Zero
	for _, w := range s.Winners {
		total = total.Add(w.FinalWinningAmount)
	}
	return total
}
