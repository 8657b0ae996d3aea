package interfaces

import (
	"context"
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// LedgerMutation describes one requested balance change
type LedgerMutation struct {
	UserID          int64
	ActorID         int64
	Field           string
	Delta           decimal.Decimal
	Reason          string
	UpdateType      string
	TransactionType entities.TransactionType
	IdempotencyKey  string
	Metadata        map[string]any
}

// LedgerResult is the outcome of a ledger mutation. Entry is nil when nothing
// was written (zero delta or an already applied idempotency key).
type LedgerResult struct {
	NewBalance decimal.Decimal
	Entry      *entities.LedgerEntry
}

// LedgerMutator is the only gateway allowed to change a user's balance
type LedgerMutator interface {
	ApplyDelta(ctx context.Context, mutation LedgerMutation) (*LedgerResult, error)
}

// AdmitRequest is a ticket purchase attempt
type AdmitRequest struct {
	UserID           int64
	GameType         entities.GameType
	PlayType         entities.PlayType
	GameNumber       string
	Numbers          []entities.NumberEntry
	PlayedAmount     decimal.Decimal
	IsOriginalTicket bool
}

// AdmitResult is a committed purchase
type AdmitResult struct {
	Ticket        *entities.Ticket
	Balance       decimal.Decimal
	ReferralBonus *entities.ReferralBonus
}

// PlayAdmissionService validates and records ticket purchases
type PlayAdmissionService interface {
	Admit(ctx context.Context, req AdmitRequest) (*AdmitResult, error)
}

// SettlementService settles a draw against its published result
type SettlementService interface {
	// Settle settles a draw once. A nil result uses the stored publication.
	Settle(ctx context.Context, gameType entities.GameType, gameNumber string, result *entities.DrawResult) (*entities.SettlementSummary, error)
}

// DrawResultService records published draw results
type DrawResultService interface {
	PublishResult(ctx context.Context, result *entities.DrawResult) (*entities.Draw, error)
}

// TicketQueryService exposes read-only lookups
type TicketQueryService interface {
	ListTickets(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error)
	FindTicket(ctx context.Context, ticketNumber string) (*entities.Ticket, error)
	FindSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error)
	ListLedgerEntries(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)
}
