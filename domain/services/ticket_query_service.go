package services

import (
	"context"
	"fmt"

	"lotto/domain/entities"
	"lotto/domain/interfaces"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TicketQueryService provides read-only lookups over tickets, settlements and the ledger
type TicketQueryService struct {
	ticketRepo     interfaces.TicketRepository
	settlementRepo interfaces.SettlementRepository
	ledgerRepo     interfaces.LedgerEntryRepository
}

// NewTicketQueryService creates a new TicketQueryService
func NewTicketQueryService(
	ticketRepo interfaces.TicketRepository,
	settlementRepo interfaces.SettlementRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
) *TicketQueryService {
	return &TicketQueryService{
		ticketRepo:     ticketRepo,
		settlementRepo: settlementRepo,
		ledgerRepo:     ledgerRepo,
	}
}

// ListTickets returns tickets matching filter
func (s *TicketQueryService) ListTickets(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	tickets, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// FindTicket returns a ticket by number, or nil
func (s *TicketQueryService) FindTicket(ctx context.Context, ticketNumber string) (*entities.Ticket, error) {
	ticket, err := s.ticketRepo.GetByTicketNumber(ctx, ticketNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

// FindSettlement returns the summary of a settled draw, or nil
func (s *TicketQueryService) FindSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error) {
	summary, err := s.settlementRepo.GetByDraw(ctx, gameType, gameNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return summary, nil
}

// ListLedgerEntries returns the most recent ledger entries of a user
func (s *TicketQueryService) ListLedgerEntries(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

var _ interfaces.TicketQueryService = (*TicketQueryService)(nil)
