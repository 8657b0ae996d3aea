package application

import (
	"context"
	"errors"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// PlayHandler admits ticket purchases, one unit of work per attempt. A
// ticket number collision or transient store failure rolls the attempt back
// and retries it with a fresh number.
type PlayHandler struct {
	uowFactory UnitOfWorkFactory
	clock      interfaces.Clock
	metrics    Metrics
	opts       HandlerOptions
}

// NewPlayHandler creates a new PlayHandler
func NewPlayHandler(uowFactory UnitOfWorkFactory, clock interfaces.Clock, metrics Metrics, opts HandlerOptions) *PlayHandler {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &PlayHandler{
		uowFactory: uowFactory,
		clock:      clock,
		metrics:    metrics,
		opts:       opts,
	}
}

// Play admits a purchase and returns the committed ticket
func (h *PlayHandler) Play(ctx context.Context, req interfaces.AdmitRequest) (*interfaces.AdmitResult, error) {
	var result *interfaces.AdmitResult
	attempt := 0

	operation := func() error {
		attempt++
		err := withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
			admitted, err := newPlayAdmissionService(uow, h.clock, h.opts.Engine).Admit(ctx, req)
			if err != nil {
				return err
			}
			result = admitted
			return nil
		})
		if err == nil {
			return nil
		}
		if !entities.IsRetryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.WithFields(log.Fields{
			"userID":  req.UserID,
			"draw":    entities.DrawKey(req.GameType, req.GameNumber),
			"attempt": attempt,
			"error":   err,
		}).Warn("Retrying play admission")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(h.retryPolicy(), ctx))
	if err != nil {
		h.recordRejection(req, err)
		return nil, err
	}

	h.metrics.RecordPlayAdmitted(req.GameType, req.PlayType)
	return result, nil
}

func (h *PlayHandler) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	retries := h.opts.TicketRetryMax
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

func (h *PlayHandler) recordRejection(req interfaces.AdmitRequest, err error) {
	var rejected *entities.RejectedPlay
	var validation *entities.ValidationError
	switch {
	case errors.As(err, &rejected):
		h.metrics.RecordPlayRejected(req.GameType, string(rejected.Reason))
	case errors.As(err, &validation):
		h.metrics.RecordPlayRejected(req.GameType, "Invalid")
	default:
		h.metrics.RecordPlayRejected(req.GameType, "Error")
		log.WithFields(log.Fields{
			"userID": req.UserID,
			"draw":   entities.DrawKey(req.GameType, req.GameNumber),
			"error":  err,
		}).Error("Play admission failed")
	}
}
