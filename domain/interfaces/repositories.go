package interfaces

import (
	"context"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for the wallet view of user accounts
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if not found
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *entities.User) error

	// AdjustAvailableAmount adds delta to the available amount in a single
	// statement. Negative deltas only apply when the result stays >= 0;
	// applied is false when no row was changed.
	AdjustAvailableAmount(ctx context.Context, id int64, delta decimal.Decimal) (newBalance decimal.Decimal, applied bool, err error)
}

// LedgerEntryRepository defines the interface for the append-only balance audit trail
type LedgerEntryRepository interface {
	// Append creates a new ledger entry
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// ExistsByIdempotencyKey reports whether an entry was already written for key
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)

	// GetByUser returns the most recent entries of a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)

	// SumByReason totals the deltas of one transaction type carrying reason
	SumByReason(ctx context.Context, reason string, transactionType entities.TransactionType) (decimal.Decimal, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// Create inserts a ticket. A duplicate ticket number yields a ConflictError.
	Create(ctx context.Context, ticket *entities.Ticket) error

	// GetByTicketNumber retrieves a ticket, returning nil if not found
	GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.Ticket, error)

	// ListByDraw returns every ticket of a draw in creation order
	ListByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) ([]*entities.Ticket, error)

	// List returns tickets matching filter, newest first
	List(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error)

	// MarkSettled stamps the listed tickets that are not settled yet
	MarkSettled(ctx context.Context, ticketIDs []int64, at time.Time) (int64, error)
}

// TicketNumberGenerator supplies unique ticket numbers scoped per game type
type TicketNumberGenerator interface {
	Next(ctx context.Context, gameType entities.GameType, drawDate entities.DrawDateParts) (string, error)
}

// GameSettingsRepository defines the interface for game configuration
type GameSettingsRepository interface {
	// GetSetting retrieves the setting of a game type, returning nil if not found
	GetSetting(ctx context.Context, gameType entities.GameType) (*entities.GameSetting, error)

	// GetPermission retrieves the permission flags of a game type, returning nil if not found
	GetPermission(ctx context.Context, gameType entities.GameType) (*entities.GamePermission, error)

	// UpsertSetting creates or replaces a game setting
	UpsertSetting(ctx context.Context, setting *entities.GameSetting) error

	// UpsertPermission creates or replaces permission flags
	UpsertPermission(ctx context.Context, permission *entities.GamePermission) error
}

// DrawRepository defines the interface for draw lifecycle state
type DrawRepository interface {
	// Get retrieves a draw, returning nil if it was never opened or published
	Get(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.Draw, error)

	// LockForAdmission records the draw as open if it is unseen and holds a
	// shared lock on it until the transaction ends, so settlement cannot start
	// while a purchase is in flight. It returns the current state.
	LockForAdmission(ctx context.Context, gameType entities.GameType, gameNumber string) (entities.DrawState, error)

	// SaveResult stores a result on a draw that has none yet and moves it to
	// result_published. stored is false when a result was already present.
	SaveResult(ctx context.Context, result *entities.DrawResult) (stored bool, err error)

	// BeginSettlement moves the draw to settling if it is open or
	// result_published. acquired is false when another run owns or finished it.
	BeginSettlement(ctx context.Context, result *entities.DrawResult) (acquired bool, err error)

	// CompleteSettlement moves a settling draw to settled
	CompleteSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) error

	// ListPendingSettlement returns draws with a published result older than before
	ListPendingSettlement(ctx context.Context, before time.Time, limit int) ([]*entities.Draw, error)
}

// SettlementRepository defines the interface for settlement summaries
type SettlementRepository interface {
	// Create inserts a summary. A second summary for the same draw yields ErrAlreadySettled.
	Create(ctx context.Context, summary *entities.SettlementSummary) error

	// GetByDraw retrieves a summary, returning nil if the draw is not settled
	GetByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error)
}

// ReferralBonusRepository defines the interface for referral bonus records
type ReferralBonusRepository interface {
	// Create inserts the bonus for a ticket. created is false if one already exists.
	Create(ctx context.Context, bonus *entities.ReferralBonus) (created bool, err error)

	// MarkCredited links the bonus to the ledger entry that paid it
	MarkCredited(ctx context.Context, ticketNumber string, ledgerEntryID int64) error

	// GetByTicketNumber retrieves a bonus, returning nil if not found
	GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.ReferralBonus, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction
// commits (Flush) or rolls back (Discard)
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
