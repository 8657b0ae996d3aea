package services

import (
	"context"
	"fmt"
	"sort"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// SettlementService settles draws exactly once. It must run inside a single
// unit of work per draw so the summary, credits and state transition commit
// or roll back together.
type SettlementService struct {
	settingsRepo   interfaces.GameSettingsRepository
	drawRepo       interfaces.DrawRepository
	ticketRepo     interfaces.TicketRepository
	settlementRepo interfaces.SettlementRepository
	ledger         interfaces.LedgerMutator
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
	catalog        *GameCatalog
	opts           EngineOptions
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	settingsRepo interfaces.GameSettingsRepository,
	drawRepo interfaces.DrawRepository,
	ticketRepo interfaces.TicketRepository,
	settlementRepo interfaces.SettlementRepository,
	ledger interfaces.LedgerMutator,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
	opts EngineOptions,
) *SettlementService {
	return &SettlementService{
		settingsRepo:   settingsRepo,
		drawRepo:       drawRepo,
		ticketRepo:     ticketRepo,
		settlementRepo: settlementRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		clock:          clock,
		catalog:        NewGameCatalog(),
		opts:           opts,
	}
}

// Settle matches every ticket of a draw against its result, records the
// summary and credits winners. A draw that already has a summary, is being
// settled elsewhere, or still accepts plays is rejected with a ConflictError.
func (s *SettlementService) Settle(ctx context.Context, gameType entities.GameType, gameNumber string, result *entities.DrawResult) (*entities.SettlementSummary, error) {
	if !gameType.IsValid() {
		return nil, &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", gameType)}
	}
	if _, err := entities.ParseGameNumber(gameNumber); err != nil {
		return nil, err
	}
	drawKey := entities.DrawKey(gameType, gameNumber)

	existing, err := s.settlementRepo.GetByDraw(ctx, gameType, gameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing settlement: %w", err)
	}
	if existing != nil {
		return nil, &entities.ConflictError{Kind: entities.ConflictAlreadySettled, Key: drawKey}
	}

	draw, err := s.drawRepo.Get(ctx, gameType, gameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw != nil && draw.IsSettled() {
		return nil, &entities.ConflictError{Kind: entities.ConflictAlreadySettled, Key: drawKey}
	}

	result, err = s.resolveResult(gameType, gameNumber, draw, result)
	if err != nil {
		return nil, err
	}

	setting, err := s.settingsRepo.GetSetting(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get game setting: %w", err)
	}
	permission, err := s.settingsRepo.GetPermission(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get game permission: %w", err)
	}
	if setting == nil || permission == nil {
		return nil, &entities.ValidationError{Field: "gameType", Message: fmt.Sprintf("game %s is not initialized", gameType)}
	}
	if err := checkDrawClosed(s.clock.Now(), setting, gameType, gameNumber, s.opts.location()); err != nil {
		return nil, err
	}
	if err := s.checkComplete(result, permission, nil); err != nil {
		return nil, err
	}

	acquired, err := s.drawRepo.BeginSettlement(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement: %w", err)
	}
	if !acquired {
		return nil, s.lostRace(ctx, gameType, gameNumber)
	}

	// listed after the transition: admissions holding the draw lock have committed
	tickets, err := s.ticketRepo.ListByDraw(ctx, gameType, gameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	if err := s.checkComplete(result, permission, tickets); err != nil {
		return nil, err
	}

	summary, outcomes := BuildSettlementSummary(gameType, gameNumber, tickets, result, setting)
	summary.CreatedAt = s.clock.Now()
	if err := s.settlementRepo.Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to create settlement summary: %w", err)
	}

	for _, outcome := range outcomes {
		if !outcome.Net.IsPositive() {
			continue
		}
		_, err := s.ledger.ApplyDelta(ctx, interfaces.LedgerMutation{
			UserID:          outcome.Ticket.UserID,
			ActorID:         s.opts.SystemAccountID,
			Field:           entities.LedgerFieldAvailableAmount,
			Delta:           outcome.Net,
			Reason:          drawKey,
			UpdateType:      entities.UpdateTypeMoney,
			TransactionType: entities.TransactionTypeDrawWin,
			IdempotencyKey:  drawKey + ":" + outcome.Ticket.TicketNumber,
			Metadata: map[string]any{
				"ticket_number":   outcome.Ticket.TicketNumber,
				"gross":           outcome.Gross.StringFixed(2),
				"commission":      outcome.Commission.StringFixed(2),
				"winning_numbers": outcome.WinningNumbers,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to credit winner %s: %w", outcome.Ticket.TicketNumber, err)
		}
	}

	if _, err := s.ticketRepo.MarkSettled(ctx, ticketIDs(tickets), summary.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to mark tickets settled: %w", err)
	}
	if err := s.drawRepo.CompleteSettlement(ctx, gameType, gameNumber); err != nil {
		return nil, fmt.Errorf("failed to complete settlement: %w", err)
	}

	event := events.DrawSettledEvent{
		GameType:                 gameType,
		GameNumber:               gameNumber,
		TicketCount:              summary.TicketCount,
		WinnerCount:              summary.WinnerCount,
		TotalPaidAmountInGame:    summary.TotalPaidAmountInGame,
		TotalActualWinningAmount: summary.TotalActualWinningAmount,
		AgentCommission:          summary.AgentCommission,
		Profit:                   summary.Profit,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish draw settled event")
	}

	log.WithFields(log.Fields{
		"draw":        drawKey,
		"tickets":     summary.TicketCount,
		"winners":     summary.WinnerCount,
		"netWinnings": summary.TotalActualWinningAmount.StringFixed(2),
		"commission":  summary.AgentCommission.StringFixed(2),
		"profit":      summary.Profit.StringFixed(2),
	}).Info("Draw settled")

	return summary, nil
}

// resolveResult picks the result to settle with. A nil result falls back to
// the stored publication; a result that contradicts it is rejected.
func (s *SettlementService) resolveResult(gameType entities.GameType, gameNumber string, draw *entities.Draw, result *entities.DrawResult) (*entities.DrawResult, error) {
	var stored *entities.DrawResult
	if draw != nil {
		stored = draw.Result
	}

	if result == nil {
		if stored == nil {
			return nil, &entities.ValidationError{Field: "result", Message: "no result has been published for this draw"}
		}
		return stored, nil
	}

	if result.GameType == "" {
		result.GameType = gameType
	}
	if result.GameNumber == "" {
		result.GameNumber = gameNumber
	}
	if result.GameType != gameType || result.GameNumber != gameNumber {
		return nil, &entities.ValidationError{Field: "result", Message: "result belongs to a different draw"}
	}
	if err := result.Validate(s.catalog.Offers); err != nil {
		return nil, err
	}
	if result.PublishedAt.IsZero() {
		result.PublishedAt = s.clock.Now()
	}
	if stored != nil && !stored.SameNumbers(result) {
		return nil, &entities.ConflictError{Kind: entities.ConflictResultMismatch, Key: entities.DrawKey(gameType, gameNumber)}
	}
	return result, nil
}

// checkComplete fails with IncompleteResult when result lacks a sub-result
// needed by an enabled play type or by one of tickets
func (s *SettlementService) checkComplete(result *entities.DrawResult, permission *entities.GamePermission, tickets []*entities.Ticket) error {
	missing := result.Missing(s.requiredPlayTypes(result.GameType, permission, tickets))
	if len(missing) == 0 {
		return nil
	}
	return &entities.IncompleteResult{GameType: result.GameType, GameNumber: result.GameNumber, Missing: missing}
}

func ticketIDs(tickets []*entities.Ticket) []int64 {
	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

// requiredPlayTypes is the union of the enabled play types and those present on tickets
func (s *SettlementService) requiredPlayTypes(gameType entities.GameType, permission *entities.GamePermission, tickets []*entities.Ticket) []entities.PlayType {
	seen := make(map[entities.PlayType]bool)
	for _, pt := range s.catalog.EnabledPlayTypes(gameType, permission) {
		seen[pt] = true
	}
	for _, t := range tickets {
		seen[t.PlayType] = true
	}

	required := make([]entities.PlayType, 0, len(seen))
	for pt := range seen {
		required = append(required, pt)
	}
	sort.Slice(required, func(i, j int) bool { return required[i] < required[j] })
	return required
}

// lostRace classifies a failed state transition
func (s *SettlementService) lostRace(ctx context.Context, gameType entities.GameType, gameNumber string) error {
	key := entities.DrawKey(gameType, gameNumber)
	draw, err := s.drawRepo.Get(ctx, gameType, gameNumber)
	if err != nil {
		return fmt.Errorf("failed to get draw: %w", err)
	}
	if draw != nil && draw.IsSettled() {
		return &entities.ConflictError{Kind: entities.ConflictAlreadySettled, Key: key}
	}
	return &entities.ConflictError{Kind: entities.ConflictSettlementInProgress, Key: key}
}

var _ interfaces.SettlementService = (*SettlementService)(nil)
