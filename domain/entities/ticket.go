package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// NumberEntry is one played number on a ticket
type NumberEntry struct {
	Number   string          `json:"number"`
	Straight decimal.Decimal `json:"straight"`
	Rumble   decimal.Decimal `json:"rumble"`
}

// Stake returns the total amount staked on this entry
func (e NumberEntry) Stake() decimal.Decimal {
	return e.Straight.Add(e.Rumble)
}

// Ticket is a purchased play against one draw
type Ticket struct {
	ID               int64           `db:"id"`
	TicketNumber     string          `db:"ticket_number"`
	UserID           int64           `db:"user_id"`
	GameType         GameType        `db:"game_type"`
	PlayType         PlayType        `db:"play_type"`
	GameNumber       string          `db:"game_number"`
	Numbers          []NumberEntry   `db:"numbers"`
	PlayedAmount     decimal.Decimal `db:"played_amount"`
	Discount         decimal.Decimal `db:"discount"`
	PaidAmount       decimal.Decimal `db:"paid_amount"`
	IsOriginalTicket bool            `db:"is_original_ticket"`
	SettledAt        *time.Time      `db:"settled_at"` // NULL until the draw is settled
	CreatedAt        time.Time       `db:"created_at"`
}

// IsSettled returns true once the ticket's draw has been settled
func (t *Ticket) IsSettled() bool {
	return t.SettledAt != nil
}

// TotalStake sums the stakes of every number entry
func (t *Ticket) TotalStake() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range t.Numbers {
		total = total.Add(entry.Stake())
	}
	return total
}

// AmountsConsistent checks paid = played - discount with 0 <= discount <= played
func (t *Ticket) AmountsConsistent() bool {
	if t.Discount.IsNegative() || t.Discount.GreaterThan(t.PlayedAmount) {
		return false
	}
	return t.PaidAmount.Equal(t.PlayedAmount.Sub(t.Discount))
}

// TicketFilter narrows ticket listings
type TicketFilter struct {
	UserID     *int64
	GameType   *GameType
	GameNumber *string
	Limit      int
	Offset     int
}
