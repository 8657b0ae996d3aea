package services

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LedgerService applies balance mutations. Every applied mutation is paired
// with exactly one ledger entry written through the same repositories.
type LedgerService struct {
	userRepo       interfaces.UserRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	userRepo interfaces.UserRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) *LedgerService {
	return &LedgerService{
		userRepo:       userRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// ApplyDelta adds mutation.Delta to the user's available amount. Debits are
// re-checked by the store and fail with ErrInsufficientBalance instead of
// going negative.
func (s *LedgerService) ApplyDelta(ctx context.Context, mutation interfaces.LedgerMutation) (*interfaces.LedgerResult, error) {
	if err := s.validate(&mutation); err != nil {
		return nil, err
	}

	if mutation.Delta.IsZero() {
		user, err := s.requireUser(ctx, mutation.UserID)
		if err != nil {
			return nil, err
		}
		return &interfaces.LedgerResult{NewBalance: user.AvailableAmount}, nil
	}

	if mutation.IdempotencyKey != "" {
		exists, err := s.ledgerRepo.ExistsByIdempotencyKey(ctx, mutation.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if exists {
			user, err := s.requireUser(ctx, mutation.UserID)
			if err != nil {
				return nil, err
			}
			log.WithFields(log.Fields{
				"userID":         mutation.UserID,
				"idempotencyKey": mutation.IdempotencyKey,
			}).Debug("Ledger mutation already applied, skipping")
			return &interfaces.LedgerResult{NewBalance: user.AvailableAmount}, nil
		}
	}

	newBalance, applied, err := s.userRepo.AdjustAvailableAmount(ctx, mutation.UserID, mutation.Delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust available amount: %w", err)
	}
	if !applied {
		user, err := s.requireUser(ctx, mutation.UserID)
		if err != nil {
			return nil, err
		}
		return nil, &entities.RejectedPlay{
			Reason: entities.RejectInsufficientBalance,
			UserID: mutation.UserID,
			Detail: fmt.Sprintf("balance %s cannot cover %s", user.AvailableAmount.StringFixed(2), mutation.Delta.Neg().StringFixed(2)),
		}
	}

	entry := &entities.LedgerEntry{
		UserID:          mutation.UserID,
		ActorID:         mutation.ActorID,
		Collection:      entities.LedgerCollectionUsers,
		Field:           mutation.Field,
		Delta:           mutation.Delta,
		BalanceAfter:    newBalance,
		UpdateType:      mutation.UpdateType,
		TransactionType: mutation.TransactionType,
		Reason:          mutation.Reason,
		Metadata:        mutation.Metadata,
	}
	if mutation.IdempotencyKey != "" {
		key := mutation.IdempotencyKey
		entry.IdempotencyKey = &key
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:          mutation.UserID,
		ActorID:         mutation.ActorID,
		OldBalance:      entry.BalanceBefore(),
		NewBalance:      newBalance,
		ChangeAmount:    mutation.Delta,
		TransactionType: mutation.TransactionType,
		Reason:          mutation.Reason,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	log.WithFields(log.Fields{
		"userID":          mutation.UserID,
		"delta":           mutation.Delta.StringFixed(2),
		"newBalance":      newBalance.StringFixed(2),
		"transactionType": mutation.TransactionType,
		"reason":          mutation.Reason,
	}).Debug("Applied ledger mutation")

	return &interfaces.LedgerResult{NewBalance: newBalance, Entry: entry}, nil
}

func (s *LedgerService) validate(mutation *interfaces.LedgerMutation) error {
	if mutation.UserID <= 0 {
		return &entities.ValidationError{Field: "userId", Message: "must be positive"}
	}
	if mutation.Field == "" {
		mutation.Field = entities.LedgerFieldAvailableAmount
	}
	if mutation.Field != entities.LedgerFieldAvailableAmount {
		return &entities.ValidationError{Field: "field", Message: fmt.Sprintf("%q is not a mutable balance field", mutation.Field)}
	}
	if !entities.RoundMoney(mutation.Delta).Equal(mutation.Delta) {
		return &entities.ValidationError{Field: "delta", Message: "must have at most two decimal places"}
	}
	if mutation.UpdateType == "" {
		mutation.UpdateType = entities.UpdateTypeMoney
	}
	return nil
}

func (s *LedgerService) requireUser(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &entities.RejectedPlay{Reason: entities.RejectUserNotFound, UserID: userID}
	}
	return user, nil
}

// Ensure LedgerService satisfies the mutator contract
var _ interfaces.LedgerMutator = (*LedgerService)(nil)

