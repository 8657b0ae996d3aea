package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// EngineOptions carries the process-wide settings the engine depends on
type EngineOptions struct {
	GamesEnabled         bool
	ReferralBonusPercent decimal.Decimal
	SystemAccountID      int64
	Location             *time.Location
}

func (o EngineOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// PlayAdmissionService validates and records ticket purchases. All writes go
// through the repositories it was built with, so a caller running it inside a
// unit of work gets the debit, ticket and referral credit committed together.
type PlayAdmissionService struct {
	settingsRepo   interfaces.GameSettingsRepository
	drawRepo       interfaces.DrawRepository
	userRepo       interfaces.UserRepository
	ticketRepo     interfaces.TicketRepository
	ticketNumbers  interfaces.TicketNumberGenerator
	referralRepo   interfaces.ReferralBonusRepository
	ledger         interfaces.LedgerMutator
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
	catalog        *GameCatalog
	discounts      *DiscountCalculator
	opts           EngineOptions
}

// NewPlayAdmissionService creates a new PlayAdmissionService
func NewPlayAdmissionService(
	settingsRepo interfaces.GameSettingsRepository,
	drawRepo interfaces.DrawRepository,
	userRepo interfaces.UserRepository,
	ticketRepo interfaces.TicketRepository,
	ticketNumbers interfaces.TicketNumberGenerator,
	referralRepo interfaces.ReferralBonusRepository,
	ledger interfaces.LedgerMutator,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
	opts EngineOptions,
) *PlayAdmissionService {
	return &PlayAdmissionService{
		settingsRepo:   settingsRepo,
		drawRepo:       drawRepo,
		userRepo:       userRepo,
		ticketRepo:     ticketRepo,
		ticketNumbers:  ticketNumbers,
		referralRepo:   referralRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		clock:          clock,
		catalog:        NewGameCatalog(),
		discounts:      NewDiscountCalculator(),
		opts:           opts,
	}
}

// admissionQuote is the outcome of the precondition checks
type admissionQuote struct {
	user     *entities.User
	drawDate entities.DrawDateParts
	discount decimal.Decimal
	paid     decimal.Decimal
}

// Admit validates a purchase and, when every precondition holds, debits the
// purchaser, saves the ticket and credits any referral bonus.
func (s *PlayAdmissionService) Admit(ctx context.Context, req interfaces.AdmitRequest) (*interfaces.AdmitResult, error) {
	drawDate, err := validateAdmitRequest(req)
	if err != nil {
		return nil, err
	}

	quote, err := s.checkPreconditions(ctx, req, drawDate)
	if err != nil {
		return nil, err
	}

	ticketNumber, err := s.ticketNumbers.Next(ctx, req.GameType, drawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket number: %w", err)
	}

	debit, err := s.ledger.ApplyDelta(ctx, interfaces.LedgerMutation{
		UserID:          req.UserID,
		ActorID:         req.UserID,
		Field:           entities.LedgerFieldAvailableAmount,
		Delta:           quote.paid.Neg(),
		Reason:          ticketNumber,
		UpdateType:      entities.UpdateTypeMoney,
		TransactionType: entities.TransactionTypePlayDebit,
		IdempotencyKey:  "play:" + ticketNumber,
		Metadata: map[string]any{
			"game_type":   req.GameType,
			"play_type":   req.PlayType,
			"game_number": req.GameNumber,
		},
	})
	if err != nil {
		var rejected *entities.RejectedPlay
		if errors.As(err, &rejected) {
			return nil, s.reject(req, rejected.Reason, rejected.Detail)
		}
		return nil, fmt.Errorf("failed to debit purchaser: %w", err)
	}

	ticket := &entities.Ticket{
		TicketNumber:     ticketNumber,
		UserID:           req.UserID,
		GameType:         req.GameType,
		PlayType:         req.PlayType,
		GameNumber:       req.GameNumber,
		Numbers:          req.Numbers,
		PlayedAmount:     req.PlayedAmount,
		Discount:         quote.discount,
		PaidAmount:       quote.paid,
		IsOriginalTicket: req.IsOriginalTicket,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	bonus, err := s.payReferralBonus(ctx, quote.user, ticket)
	if err != nil {
		return nil, err
	}

	event := events.TicketPurchasedEvent{
		TicketNumber: ticket.TicketNumber,
		UserID:       ticket.UserID,
		GameType:     ticket.GameType,
		PlayType:     ticket.PlayType,
		GameNumber:   ticket.GameNumber,
		PlayedAmount: ticket.PlayedAmount,
		Discount:     ticket.Discount,
		PaidAmount:   ticket.PaidAmount,
		ReferralPaid: decimal.Zero,
	}
	if bonus != nil {
		event.ReferrerID = &bonus.ReferrerID
		event.ReferralPaid = bonus.Amount
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish ticket purchased event")
	}

	log.WithFields(log.Fields{
		"ticketNumber": ticket.TicketNumber,
		"userID":       ticket.UserID,
		"draw":         entities.DrawKey(ticket.GameType, ticket.GameNumber),
		"playType":     ticket.PlayType,
		"paidAmount":   ticket.PaidAmount.StringFixed(2),
		"discount":     ticket.Discount.StringFixed(2),
	}).Info("Ticket admitted")

	return &interfaces.AdmitResult{
		Ticket:        ticket,
		Balance:       debit.NewBalance,
		ReferralBonus: bonus,
	}, nil
}

// checkPreconditions runs the admission rules in order, first failure wins
func (s *PlayAdmissionService) checkPreconditions(ctx context.Context, req interfaces.AdmitRequest, drawDate entities.DrawDateParts) (*admissionQuote, error) {
	setting, err := s.settingsRepo.GetSetting(ctx, req.GameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get game setting: %w", err)
	}
	permission, err := s.settingsRepo.GetPermission(ctx, req.GameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get game permission: %w", err)
	}
	if setting == nil || permission == nil {
		return nil, s.reject(req, entities.RejectNotInitialized, "")
	}

	if !s.catalog.IsPlayTypeEnabled(req.GameType, req.PlayType, permission) {
		return nil, s.reject(req, entities.RejectGameDisabled, string(req.PlayType))
	}

	if req.PlayedAmount.LessThan(setting.MinimumAmountForPlay) {
		return nil, s.reject(req, entities.RejectBelowMinimum,
			fmt.Sprintf("minimum is %s", setting.MinimumAmountForPlay.StringFixed(2)))
	}

	if !permission.AcceptsPlays() || !s.opts.GamesEnabled {
		return nil, s.reject(req, entities.RejectGameUnavailable, "")
	}

	loc := s.opts.location()
	closesAt, err := drawCloseTime(setting, drawDate, loc)
	if err != nil {
		return nil, s.reject(req, entities.RejectNotInitialized, err.Error())
	}
	now := s.clock.Now().In(loc)
	if !now.Before(closesAt) {
		return nil, s.reject(req, entities.RejectGameClosed, fmt.Sprintf("stopped at %s", setting.GameStopHour))
	}

	// held until commit, so the draw cannot start settling under this purchase
	state, err := s.drawRepo.LockForAdmission(ctx, req.GameType, req.GameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if state != entities.DrawStateOpen {
		return nil, s.reject(req, entities.RejectGameClosed, fmt.Sprintf("draw is %s", state))
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, s.reject(req, entities.RejectUserNotFound, "")
	}
	if user.BlockedByAdmin {
		return nil, s.reject(req, entities.RejectUserBlocked, "")
	}

	discount := s.discounts.ComputeDiscount(DiscountInput{
		GameType:        req.GameType,
		PlayType:        req.PlayType,
		StakedAmount:    req.PlayedAmount,
		Setting:         setting,
		Permission:      permission,
		SpecialDiscount: user.AllowedSpecialDiscount,
		Now:             now,
		Draw:            drawDate,
	})
	paid := req.PlayedAmount.Sub(discount)
	if !user.CanAfford(paid) {
		return nil, s.reject(req, entities.RejectInsufficientBalance,
			fmt.Sprintf("balance %s cannot cover %s", user.AvailableAmount.StringFixed(2), paid.StringFixed(2)))
	}

	return &admissionQuote{user: user, drawDate: drawDate, discount: discount, paid: paid}, nil
}

// payReferralBonus evaluates the referral table and credits the referrer.
// The bonus row is keyed by ticket number so a retried purchase cannot pay twice.
func (s *PlayAdmissionService) payReferralBonus(ctx context.Context, purchaser *entities.User, ticket *entities.Ticket) (*entities.ReferralBonus, error) {
	var referrer *entities.User
	if purchaser.HasReferrer() {
		var err error
		referrer, err = s.userRepo.GetByID(ctx, *purchaser.ReferredBy)
		if err != nil {
			return nil, fmt.Errorf("failed to get referrer: %w", err)
		}
	}

	decision := EvaluateReferral(purchaser, referrer, ticket.PaidAmount, s.opts.ReferralBonusPercent, s.opts.SystemAccountID)
	if !decision.Eligible() {
		if decision.HasReferrer {
			log.WithFields(log.Fields{
				"ticketNumber": ticket.TicketNumber,
				"referrerID":   decision.ReferrerID,
				"reason":       decision.SkipReason(),
			}).Debug("Referral bonus skipped")
		}
		return nil, nil
	}

	bonus := &entities.ReferralBonus{
		TicketNumber: ticket.TicketNumber,
		ReferrerID:   decision.ReferrerID,
		PurchaserID:  purchaser.ID,
		Amount:       decision.Amount,
		CreatedAt:    ticket.CreatedAt,
	}
	created, err := s.referralRepo.Create(ctx, bonus)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral bonus: %w", err)
	}
	if !created {
		existing, err := s.referralRepo.GetByTicketNumber(ctx, ticket.TicketNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to get referral bonus: %w", err)
		}
		if existing != nil && existing.IsCredited() {
			return existing, nil
		}
		if existing != nil {
			bonus = existing
		}
	}

	credit, err := s.ledger.ApplyDelta(ctx, interfaces.LedgerMutation{
		UserID:          bonus.ReferrerID,
		ActorID:         purchaser.ID,
		Field:           entities.LedgerFieldAvailableAmount,
		Delta:           bonus.Amount,
		Reason:          ticket.TicketNumber,
		UpdateType:      entities.UpdateTypeMoney,
		TransactionType: entities.TransactionTypeReferralBonus,
		IdempotencyKey:  "referral:" + ticket.TicketNumber,
		Metadata: map[string]any{
			"purchaser_id": purchaser.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit referral bonus: %w", err)
	}
	if credit.Entry != nil {
		if err := s.referralRepo.MarkCredited(ctx, bonus.TicketNumber, credit.Entry.ID); err != nil {
			return nil, fmt.Errorf("failed to mark referral bonus credited: %w", err)
		}
		id := credit.Entry.ID
		bonus.LedgerEntryID = &id
	}

	log.WithFields(log.Fields{
		"ticketNumber": ticket.TicketNumber,
		"referrerID":   bonus.ReferrerID,
		"amount":       bonus.Amount.StringFixed(2),
	}).Info("Referral bonus credited")

	return bonus, nil
}

func (s *PlayAdmissionService) reject(req interfaces.AdmitRequest, reason entities.RejectReason, detail string) *entities.RejectedPlay {
	return &entities.RejectedPlay{
		Reason:     reason,
		UserID:     req.UserID,
		GameType:   req.GameType,
		GameNumber: req.GameNumber,
		Detail:     detail,
	}
}

// validateAdmitRequest checks the shape of a request before any lookup
func validateAdmitRequest(req interfaces.AdmitRequest) (entities.DrawDateParts, error) {
	if req.UserID <= 0 {
		return entities.DrawDateParts{}, &entities.ValidationError{Field: "userId", Message: "must be positive"}
	}
	if !req.GameType.IsValid() {
		return entities.DrawDateParts{}, &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", req.GameType)}
	}
	if !req.PlayType.IsValid() {
		return entities.DrawDateParts{}, &entities.ValidationError{Field: "playType", Message: fmt.Sprintf("unknown play type %q", req.PlayType)}
	}
	drawDate, err := entities.ParseGameNumber(req.GameNumber)
	if err != nil {
		return entities.DrawDateParts{}, err
	}
	if len(req.Numbers) == 0 {
		return entities.DrawDateParts{}, &entities.ValidationError{Field: "numbers", Message: "at least one number is required"}
	}

	total := decimal.Zero
	for i, entry := range req.Numbers {
		field := fmt.Sprintf("numbers[%d]", i)
		if len(entry.Number) != req.PlayType.DigitLength() || !digitsPattern.MatchString(entry.Number) {
			return entities.DrawDateParts{}, &entities.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q must be %d digits", entry.Number, req.PlayType.DigitLength()),
			}
		}
		if entry.Straight.IsNegative() || entry.Rumble.IsNegative() {
			return entities.DrawDateParts{}, &entities.ValidationError{Field: field, Message: "stakes cannot be negative"}
		}
		if !entry.Rumble.IsZero() && !req.PlayType.SupportsRumble() {
			return entities.DrawDateParts{}, &entities.ValidationError{Field: field, Message: fmt.Sprintf("%s does not accept rumble stakes", req.PlayType)}
		}
		if !entry.Stake().IsPositive() {
			return entities.DrawDateParts{}, &entities.ValidationError{Field: field, Message: "stake must be positive"}
		}
		if !entities.RoundMoney(entry.Straight).Equal(entry.Straight) || !entities.RoundMoney(entry.Rumble).Equal(entry.Rumble) {
			return entities.DrawDateParts{}, &entities.ValidationError{Field: field, Message: "stakes must have at most two decimal places"}
		}
		total = total.Add(entry.Stake())
	}

	if !req.PlayedAmount.Equal(total) {
		return entities.DrawDateParts{}, &entities.ValidationError{
			Field:   "playedAmount",
			Message: fmt.Sprintf("%s does not equal the sum of stakes %s", req.PlayedAmount.StringFixed(2), total.StringFixed(2)),
		}
	}
	return drawDate, nil
}

var _ interfaces.PlayAdmissionService = (*PlayAdmissionService)(nil)
