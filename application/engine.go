package application

import (
	"context"
	"fmt"
	"time"

	"lotto/domain/interfaces"
	"lotto/domain/services"
)

const (
	defaultStoreTimeout      = 5 * time.Second
	defaultSettlementTimeout = 2 * time.Minute
)

// HandlerOptions configures the application handlers
type HandlerOptions struct {
	Engine             services.EngineOptions
	StoreTimeout       time.Duration
	SettlementTimeout  time.Duration
	TicketRetryMax     int
	SettlementLockTTL  time.Duration
	SettlementGrace    time.Duration
	RecoveryInterval   time.Duration
	RecoveryBatchSize  int
	RecoveryConcurrent int
}

func (o HandlerOptions) storeTimeout() time.Duration {
	if o.StoreTimeout <= 0 {
		return defaultStoreTimeout
	}
	return o.StoreTimeout
}

// settlementTimeout bounds the unit of work settling a whole draw. It is never
// shorter than the store timeout.
func (o HandlerOptions) settlementTimeout() time.Duration {
	timeout := o.SettlementTimeout
	if timeout <= 0 {
		timeout = defaultSettlementTimeout
	}
	if store := o.storeTimeout(); timeout < store {
		return store
	}
	return timeout
}

// withUnitOfWork runs fn inside a fresh unit of work bounded by the store
// timeout and commits when fn succeeds
func withUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, timeout time.Duration, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newLedgerService(uow UnitOfWork) *services.LedgerService {
	return services.NewLedgerService(uow.UserRepository(), uow.LedgerEntryRepository(), uow.EventBus())
}

func newPlayAdmissionService(uow UnitOfWork, clock interfaces.Clock, opts services.EngineOptions) *services.PlayAdmissionService {
	return services.NewPlayAdmissionService(
		uow.GameSettingsRepository(),
		uow.DrawRepository(),
		uow.UserRepository(),
		uow.TicketRepository(),
		uow.TicketNumberGenerator(),
		uow.ReferralBonusRepository(),
		newLedgerService(uow),
		uow.EventBus(),
		clock,
		opts,
	)
}

func newDrawResultService(uow UnitOfWork, clock interfaces.Clock, opts services.EngineOptions) *services.DrawResultService {
	return services.NewDrawResultService(uow.DrawRepository(), uow.GameSettingsRepository(), uow.EventBus(), clock, opts)
}

func newSettlementService(uow UnitOfWork, clock interfaces.Clock, opts services.EngineOptions) *services.SettlementService {
	return services.NewSettlementService(
		uow.GameSettingsRepository(),
		uow.DrawRepository(),
		uow.TicketRepository(),
		uow.SettlementRepository(),
		newLedgerService(uow),
		uow.EventBus(),
		clock,
		opts,
	)
}
