package repository

import (
	"context"
	"errors"
	"fmt"

	"lotto/application"
	"lotto/database"
	"lotto/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// SettingsDecorator wraps the transactional settings repository, e.g. with a cache
type SettingsDecorator func(interfaces.GameSettingsRepository) interfaces.GameSettingsRepository

// unitOfWork implements the UnitOfWork interface over a pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	decorateSettings       SettingsDecorator
	userRepo               interfaces.UserRepository
	ledgerEntryRepo        interfaces.LedgerEntryRepository
	ticketRepo             interfaces.TicketRepository
	ticketCounter          interfaces.TicketNumberGenerator
	gameSettingsRepo       interfaces.GameSettingsRepository
	drawRepo               interfaces.DrawRepository
	settlementRepo         interfaces.SettlementRepository
	referralBonusRepo      interfaces.ReferralBonusRepository
}

type unitOfWorkFactory struct {
	db               *database.DB
	decorateSettings SettingsDecorator
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// WithSettingsDecorator installs a wrapper applied to every transactional settings repository
func (f *unitOfWorkFactory) WithSettingsDecorator(decorate SettingsDecorator) *unitOfWorkFactory {
	f.decorateSettings = decorate
	return f
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
		decorateSettings:       f.decorateSettings,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = NewUserRepositoryScoped(tx)
	u.ledgerEntryRepo = NewLedgerEntryRepositoryScoped(tx)
	u.ticketRepo = NewTicketRepositoryScoped(tx)
	u.ticketCounter = NewTicketCounterRepositoryScoped(tx)
	u.drawRepo = NewDrawRepositoryScoped(tx)
	u.settlementRepo = NewSettlementRepositoryScoped(tx)
	u.referralBonusRepo = NewReferralBonusRepositoryScoped(tx)

	var settings interfaces.GameSettingsRepository = NewGameSettingsRepositoryScoped(tx)
	if u.decorateSettings != nil {
		settings = u.decorateSettings(settings)
	}
	u.gameSettingsRepo = settings

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		u.tx = nil
		if u.transactionalPublisher != nil {
			u.transactionalPublisher.Discard()
		}
		return wrapErr("commit transaction", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}
	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) mustBegin(repo any) {
	if repo == nil {
		panic("unit of work not started - call Begin() first")
	}
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	u.mustBegin(u.userRepo)
	return u.userRepo
}

// LedgerEntryRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	u.mustBegin(u.ledgerEntryRepo)
	return u.ledgerEntryRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	u.mustBegin(u.ticketRepo)
	return u.ticketRepo
}

// TicketNumberGenerator returns the ticket counter for this unit of work
func (u *unitOfWork) TicketNumberGenerator() interfaces.TicketNumberGenerator {
	u.mustBegin(u.ticketCounter)
	return u.ticketCounter
}

// GameSettingsRepository returns the settings repository for this unit of work
func (u *unitOfWork) GameSettingsRepository() interfaces.GameSettingsRepository {
	u.mustBegin(u.gameSettingsRepo)
	return u.gameSettingsRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	u.mustBegin(u.drawRepo)
	return u.drawRepo
}

// SettlementRepository returns the settlement repository for this unit of work
func (u *unitOfWork) SettlementRepository() interfaces.SettlementRepository {
	u.mustBegin(u.settlementRepo)
	return u.settlementRepo
}

// ReferralBonusRepository returns the referral bonus repository for this unit of work
func (u *unitOfWork) ReferralBonusRepository() interfaces.ReferralBonusRepository {
	u.mustBegin(u.referralBonusRepo)
	return u.referralBonusRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no transactional publisher")
	}
	return u.transactionalPublisher
}
