package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRecoveryInterval  = time.Minute
	defaultSettlementGrace   = 5 * time.Minute
	defaultRecoveryBatchSize = 50
)

// SettlementRecoveryWorker settles draws whose result was published but that
// nobody settled within the grace period, e.g. after a crash or a dropped
// feed message
type SettlementRecoveryWorker struct {
	uowFactory UnitOfWorkFactory
	settlement *SettlementHandler
	clock      interfaces.Clock
	opts       HandlerOptions
}

// NewSettlementRecoveryWorker creates a new recovery worker
func NewSettlementRecoveryWorker(uowFactory UnitOfWorkFactory, settlement *SettlementHandler, clock interfaces.Clock, opts HandlerOptions) *SettlementRecoveryWorker {
	if opts.RecoveryInterval <= 0 {
		opts.RecoveryInterval = defaultRecoveryInterval
	}
	if opts.SettlementGrace <= 0 {
		opts.SettlementGrace = defaultSettlementGrace
	}
	if opts.RecoveryBatchSize <= 0 {
		opts.RecoveryBatchSize = defaultRecoveryBatchSize
	}
	if opts.RecoveryConcurrent <= 0 {
		opts.RecoveryConcurrent = 1
	}
	return &SettlementRecoveryWorker{
		uowFactory: uowFactory,
		settlement: settlement,
		clock:      clock,
		opts:       opts,
	}
}

// Start runs the worker until ctx is cancelled or the returned stop function is called
func (w *SettlementRecoveryWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithFields(log.Fields{
			"interval": w.opts.RecoveryInterval,
			"grace":    w.opts.SettlementGrace,
		}).Info("Settlement recovery worker started")

		ticker := time.NewTicker(w.opts.RecoveryInterval)
		defer ticker.Stop()

		for {
			if _, err := w.RunOnce(ctx); err != nil {
				log.WithError(err).Error("Error recovering pending settlements")
			}

			select {
			case <-ctx.Done():
				log.Info("Settlement recovery worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Settlement recovery worker shutting down (stop requested)...")
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RecoveryReport summarizes one recovery pass
type RecoveryReport struct {
	Pending   int
	Settled   int
	Skipped   int
	Failed    int
	Duration  time.Duration
	LastError error
}

// RunOnce settles every overdue draw found in one scan. Draws are settled
// concurrently; each keeps its own lock and transaction.
func (w *SettlementRecoveryWorker) RunOnce(ctx context.Context) (*RecoveryReport, error) {
	start := time.Now()
	before := w.clock.Now().Add(-w.opts.SettlementGrace)

	var pending []*entities.Draw
	err := withUnitOfWork(ctx, w.uowFactory, w.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		var err error
		pending, err = uow.DrawRepository().ListPendingSettlement(ctx, before, w.opts.RecoveryBatchSize)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending settlements: %w", err)
	}

	report := &RecoveryReport{Pending: len(pending)}
	if len(pending) == 0 {
		log.Debug("No overdue draws to settle")
		return report, nil
	}

	var settled, skipped, failed atomic.Int64
	var mu sync.Mutex
	var lastErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.RecoveryConcurrent)
	for _, draw := range pending {
		g.Go(func() error {
			_, err := w.settlement.Settle(gctx, draw.GameType, draw.GameNumber, nil)
			switch {
			case err == nil:
				settled.Add(1)
			case errors.Is(err, entities.ErrAlreadySettled), errors.Is(err, entities.ErrSettlementInProgress):
				skipped.Add(1)
			default:
				failed.Add(1)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				log.WithFields(log.Fields{
					"draw":  entities.DrawKey(draw.GameType, draw.GameNumber),
					"error": err,
				}).Error("Failed to settle overdue draw")
			}
			// one failing draw must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	report.Settled = int(settled.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	report.Duration = time.Since(start)
	report.LastError = lastErr

	log.WithFields(log.Fields{
		"pending":  report.Pending,
		"settled":  report.Settled,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"duration": report.Duration,
	}).Info("Completed settlement recovery pass")

	return report, nil
}
