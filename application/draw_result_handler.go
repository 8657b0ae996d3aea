package application

import (
	"context"
	"errors"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DrawResultHandler records published draw results and, for results arriving
// from the result feed, settles the draw right away
type DrawResultHandler struct {
	uowFactory UnitOfWorkFactory
	settlement *SettlementHandler
	clock      interfaces.Clock
	opts       HandlerOptions
}

// NewDrawResultHandler creates a new DrawResultHandler
func NewDrawResultHandler(uowFactory UnitOfWorkFactory, settlement *SettlementHandler, clock interfaces.Clock, opts HandlerOptions) *DrawResultHandler {
	return &DrawResultHandler{
		uowFactory: uowFactory,
		settlement: settlement,
		clock:      clock,
		opts:       opts,
	}
}

// PublishResult stores a result. Republishing identical numbers is a no-op.
func (h *DrawResultHandler) PublishResult(ctx context.Context, result *entities.DrawResult) (*entities.Draw, error) {
	var draw *entities.Draw
	err := withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		stored, err := newDrawResultService(uow, h.clock, h.opts.Engine).PublishResult(ctx, result)
		if err != nil {
			return err
		}
		draw = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draw, nil
}

// HandleResult stores a result received from the feed and settles its draw.
// Redelivered results for a settled draw are acknowledged without error;
// returned errors ask the feed to redeliver.
func (h *DrawResultHandler) HandleResult(ctx context.Context, result *entities.DrawResult) error {
	drawKey := entities.DrawKey(result.GameType, result.GameNumber)

	if _, err := h.PublishResult(ctx, result); err != nil {
		var validation *entities.ValidationError
		if errors.As(err, &validation) || errors.Is(err, entities.ErrResultMismatch) || errors.Is(err, entities.ErrDrawStillOpen) {
			log.WithFields(log.Fields{"draw": drawKey, "error": err}).Error("Dropping unusable draw result")
			return nil
		}
		return err
	}

	summary, err := h.settlement.Settle(ctx, result.GameType, result.GameNumber, nil)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"draw":    drawKey,
			"winners": summary.WinnerCount,
		}).Info("Settled draw from result feed")
		return nil
	case errors.Is(err, entities.ErrAlreadySettled):
		log.WithField("draw", drawKey).Debug("Draw already settled, acknowledging result")
		return nil
	case errors.Is(err, entities.ErrSettlementInProgress):
		// the other run commits or rolls back; a redelivery re-checks
		return err
	default:
		var incomplete *entities.IncompleteResult
		if errors.As(err, &incomplete) {
			log.WithFields(log.Fields{"draw": drawKey, "missing": incomplete.Missing}).Error("Result cannot settle draw")
			return nil
		}
		return err
	}
}
