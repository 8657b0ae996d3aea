package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const defaultSettlementLockTTL = 2 * time.Minute

// SettlementHandler settles draws. Each run holds the draw lock and commits
// the summary, every winner credit and the state transition in one unit of work.
type SettlementHandler struct {
	uowFactory UnitOfWorkFactory
	locker     DrawLocker
	clock      interfaces.Clock
	metrics    Metrics
	opts       HandlerOptions
}

// NewSettlementHandler creates a new SettlementHandler. locker may be nil, in
// which case the draw state transition alone guards against double settlement.
func NewSettlementHandler(uowFactory UnitOfWorkFactory, locker DrawLocker, clock interfaces.Clock, metrics Metrics, opts HandlerOptions) *SettlementHandler {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &SettlementHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clock,
		metrics:    metrics,
		opts:       opts,
	}
}

// Settle settles one draw. A nil result settles against the stored publication.
func (h *SettlementHandler) Settle(ctx context.Context, gameType entities.GameType, gameNumber string, result *entities.DrawResult) (*entities.SettlementSummary, error) {
	start := time.Now()
	drawKey := entities.DrawKey(gameType, gameNumber)

	release, err := h.lock(ctx, gameType, gameNumber)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if err := release(context.Background()); err != nil {
				log.WithFields(log.Fields{"draw": drawKey, "error": err}).Error("Failed to release settlement lock")
			}
		}()
	}

	var summary *entities.SettlementSummary
	err = withUnitOfWork(ctx, h.uowFactory, h.opts.settlementTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		settled, err := newSettlementService(uow, h.clock, h.opts.Engine).Settle(ctx, gameType, gameNumber, result)
		if err != nil {
			return err
		}
		summary = settled
		return nil
	})
	if err != nil {
		h.metrics.RecordSettlementFailed(gameType, settlementErrorType(err))
		return nil, err
	}

	h.metrics.RecordDrawSettled(gameType, summary.WinnerCount, time.Since(start))
	return summary, nil
}

func (h *SettlementHandler) lock(ctx context.Context, gameType entities.GameType, gameNumber string) (func(context.Context) error, error) {
	if h.locker == nil {
		return nil, nil
	}
	ttl := h.opts.SettlementLockTTL
	if ttl <= 0 {
		ttl = defaultSettlementLockTTL
	}

	key := fmt.Sprintf("settle:%s:%s", gameType, gameNumber)
	release, acquired, err := h.locker.TryLock(ctx, key, ttl)
	if err != nil {
		// the draw state transition still rejects a concurrent run
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Settlement lock unavailable, relying on draw state")
		return nil, nil
	}
	if !acquired {
		return nil, &entities.ConflictError{Kind: entities.ConflictSettlementInProgress, Key: entities.DrawKey(gameType, gameNumber)}
	}
	return release, nil
}

func settlementErrorType(err error) string {
	var conflict *entities.ConflictError
	var incomplete *entities.IncompleteResult
	var validation *entities.ValidationError
	switch {
	case errors.As(err, &conflict):
		return string(conflict.Kind)
	case errors.As(err, &incomplete):
		return "incomplete_result"
	case errors.As(err, &validation):
		return "invalid"
	case entities.IsRetryable(err):
		return "transient"
	default:
		return "error"
	}
}
