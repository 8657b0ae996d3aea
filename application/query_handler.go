package application

import (
	"context"

	"lotto/domain/entities"
	"lotto/domain/services"
)

// QueryHandler serves read-only lookups, each in its own short transaction
type QueryHandler struct {
	uowFactory UnitOfWorkFactory
	opts       HandlerOptions
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(uowFactory UnitOfWorkFactory, opts HandlerOptions) *QueryHandler {
	return &QueryHandler{uowFactory: uowFactory, opts: opts}
}

func (h *QueryHandler) query(ctx context.Context, fn func(ctx context.Context, svc *services.TicketQueryService) error) error {
	return withUnitOfWork(ctx, h.uowFactory, h.opts.storeTimeout(), func(ctx context.Context, uow UnitOfWork) error {
		svc := services.NewTicketQueryService(uow.TicketRepository(), uow.SettlementRepository(), uow.LedgerEntryRepository())
		return fn(ctx, svc)
	})
}

// ListTickets returns tickets matching filter, newest first
func (h *QueryHandler) ListTickets(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error) {
	var tickets []*entities.Ticket
	err := h.query(ctx, func(ctx context.Context, svc *services.TicketQueryService) error {
		var err error
		tickets, err = svc.ListTickets(ctx, filter)
		return err
	})
	return tickets, err
}

// FindTicket returns a ticket or nil
func (h *QueryHandler) FindTicket(ctx context.Context, ticketNumber string) (*entities.Ticket, error) {
	var ticket *entities.Ticket
	err := h.query(ctx, func(ctx context.Context, svc *services.TicketQueryService) error {
		var err error
		ticket, err = svc.FindTicket(ctx, ticketNumber)
		return err
	})
	return ticket, err
}

// FindSettlement returns the summary of a settled draw or nil
func (h *QueryHandler) FindSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error) {
	var summary *entities.SettlementSummary
	err := h.query(ctx, func(ctx context.Context, svc *services.TicketQueryService) error {
		var err error
		summary, err = svc.FindSettlement(ctx, gameType, gameNumber)
		return err
	})
	return summary, err
}

// ListLedgerEntries returns a user's most recent balance mutations
func (h *QueryHandler) ListLedgerEntries(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry
	err := h.query(ctx, func(ctx context.Context, svc *services.TicketQueryService) error {
		var err error
		entries, err = svc.ListLedgerEntries(ctx, userID, limit)
		return err
	})
	return entries, err
}
