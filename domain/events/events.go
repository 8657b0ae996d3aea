package events

import (
	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeTicketPurchased EventType = "ticket_purchased"
	EventTypeResultPublished EventType = "result_published"
	EventTypeDrawSettled     EventType = "draw_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	ActorID         int64                    `json:"actor_id"`
	OldBalance      decimal.Decimal          `json:"old_balance"`
	NewBalance      decimal.Decimal          `json:"new_balance"`
	ChangeAmount    decimal.Decimal          `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	Reason          string                   `json:"reason"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// TicketPurchasedEvent is emitted once a ticket and its debit are committed
type TicketPurchasedEvent struct {
	TicketNumber string            `json:"ticket_number"`
	UserID       int64             `json:"user_id"`
	GameType     entities.GameType `json:"game_type"`
	PlayType     entities.PlayType `json:"play_type"`
	GameNumber   string            `json:"game_number"`
	PlayedAmount decimal.Decimal   `json:"played_amount"`
	Discount     decimal.Decimal   `json:"discount"`
	PaidAmount   decimal.Decimal   `json:"paid_amount"`
	ReferrerID   *int64            `json:"referrer_id,omitempty"`
	ReferralPaid decimal.Decimal   `json:"referral_paid"`
}

func (e TicketPurchasedEvent) Type() EventType {
	return EventTypeTicketPurchased
}

// ResultPublishedEvent carries a freshly stored draw result
type ResultPublishedEvent struct {
	Result entities.DrawResult `json:"result"`
}

func (e ResultPublishedEvent) Type() EventType {
	return EventTypeResultPublished
}

// DrawSettledEvent summarizes a completed settlement
type DrawSettledEvent struct {
	GameType                 entities.GameType `json:"game_type"`
	GameNumber               string            `json:"game_number"`
	TicketCount              int               `json:"ticket_count"`
	WinnerCount              int               `json:"winner_count"`
	TotalPaidAmountInGame    decimal.Decimal   `json:"total_paid_amount_in_game"`
	TotalActualWinningAmount decimal.Decimal   `json:"total_actual_winning_amount"`
	AgentCommission          decimal.Decimal   `json:"agent_commission"`
	Profit                   decimal.Decimal   `json:"profit"`
}

func (e DrawSettledEvent) Type() EventType {
	return EventTypeDrawSettled
}
