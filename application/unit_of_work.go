package application

import (
	"context"

	"lotto/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	LedgerEntryRepository() interfaces.LedgerEntryRepository
	TicketRepository() interfaces.TicketRepository
	TicketNumberGenerator() interfaces.TicketNumberGenerator
	GameSettingsRepository() interfaces.GameSettingsRepository
	DrawRepository() interfaces.DrawRepository
	SettlementRepository() interfaces.SettlementRepository
	ReferralBonusRepository() interfaces.ReferralBonusRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
