package dto

import (
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// NumberEntryView is a played number with display amounts
type NumberEntryView struct {
	Number   string `json:"number"`
	Straight string `json:"straight"`
	Rumble   string `json:"rumble"`
}

// TicketView is the display form of a ticket
type TicketView struct {
	TicketNumber     string            `json:"ticketNumber"`
	UserID           int64             `json:"userId"`
	GameType         string            `json:"gameType"`
	PlayType         string            `json:"playType"`
	GameNumber       string            `json:"gameNumber"`
	DrawDate         string            `json:"drawDate"`
	Numbers          []NumberEntryView `json:"numbers"`
	PlayedAmount     string            `json:"playedAmount"`
	Discount         string            `json:"discount"`
	PaidAmount       string            `json:"paidAmount"`
	IsOriginalTicket bool              `json:"isOriginalTicket"`
	Settled          bool              `json:"settled"`
	SettledAt        *time.Time        `json:"settledAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// WinnerView is one winning ticket of a settlement
type WinnerView struct {
	TicketNumber       string   `json:"ticketNumber"`
	UserID             int64    `json:"userId"`
	PlayType           string   `json:"playType"`
	WinningNumbers     []string `json:"winningNumbers"`
	PaidAmount         string   `json:"paidAmount"`
	GrossWinningAmount string   `json:"grossWinningAmount"`
	CommissionAmount   string   `json:"commissionAmount"`
	FinalWinningAmount string   `json:"finalWinningAmount"`
}

// LoserView is one non-winning ticket of a settlement
type LoserView struct {
	TicketNumber string `json:"ticketNumber"`
	UserID       int64  `json:"userId"`
	PlayType     string `json:"playType"`
	PaidAmount   string `json:"paidAmount"`
}

// SettlementView is the display form of a settlement summary
type SettlementView struct {
	GameType                 string       `json:"gameType"`
	GameNumber               string       `json:"gameNumber"`
	DrawDate                 string       `json:"drawDate"`
	TotalPlayedAmount        string       `json:"totalPlayedAmount"`
	TotalDiscount            string       `json:"totalDiscount"`
	TotalPaidAmountInGame    string       `json:"totalPaidAmountInGame"`
	TotalWinningAmount       string       `json:"totalWinningAmount"`
	TotalActualWinningAmount string       `json:"totalActualWinningAmount"`
	AgentCommission          string       `json:"agentCommission"`
	Profit                   string       `json:"profit"`
	TicketCount              int          `json:"ticketCount"`
	WinnerCount              int          `json:"winnerCount"`
	LoserCount               int          `json:"loserCount"`
	Winners                  []WinnerView `json:"winners"`
	Losers                   []LoserView  `json:"losers"`
	SettledAt                time.Time    `json:"settledAt"`
}

// LedgerEntryView is the display form of a ledger entry
type LedgerEntryView struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"userId"`
	ActorID         int64          `json:"actorId"`
	Field           string         `json:"field"`
	Delta           string         `json:"delta"`
	BalanceBefore   string         `json:"balanceBefore"`
	BalanceAfter    string         `json:"balanceAfter"`
	TransactionType string         `json:"transactionType"`
	Reason          string         `json:"reason"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// PlayView is the outcome of a purchase
type PlayView struct {
	Ticket        TicketView `json:"ticket"`
	Balance       string     `json:"balance"`
	ReferralBonus *string    `json:"referralBonus,omitempty"`
}

// DrawView is the lifecycle state of a draw
type DrawView struct {
	GameType   string                 `json:"gameType"`
	GameNumber string                 `json:"gameNumber"`
	DrawDate   string                 `json:"drawDate"`
	State      string                 `json:"state"`
	Results    map[string]ResultsView `json:"results,omitempty"`
}

// ResultsView holds the winning numbers of one base play type
type ResultsView struct {
	Straight string   `json:"straight"`
	Rumble   []string `json:"rumble,omitempty"`
	Singles  []string `json:"singles,omitempty"`
	Total    string   `json:"total,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(entities.MoneyPlaces)
}

// DrawDate formats a YYYYMMDD game number as YYYY-MM-DD. Unparseable numbers
// are returned unchanged.
func DrawDate(gameNumber string) string {
	parts, err := entities.ParseGameNumber(gameNumber)
	if err != nil {
		return gameNumber
	}
	return parts.At(0, 0, time.UTC).Format("2006-01-02")
}

// ToTicketView converts a ticket for display
func ToTicketView(t *entities.Ticket) TicketView {
	numbers := make([]NumberEntryView, len(t.Numbers))
	for i, n := range t.Numbers {
		numbers[i] = NumberEntryView{Number: n.Number, Straight: money(n.Straight), Rumble: money(n.Rumble)}
	}
	return TicketView{
		TicketNumber:     t.TicketNumber,
		UserID:           t.UserID,
		GameType:         string(t.GameType),
		PlayType:         string(t.PlayType),
		GameNumber:       t.GameNumber,
		DrawDate:         DrawDate(t.GameNumber),
		Numbers:          numbers,
		PlayedAmount:     money(t.PlayedAmount),
		Discount:         money(t.Discount),
		PaidAmount:       money(t.PaidAmount),
		IsOriginalTicket: t.IsOriginalTicket,
		Settled:          t.IsSettled(),
		SettledAt:        t.SettledAt,
		CreatedAt:        t.CreatedAt,
	}
}

// ToTicketViews converts a ticket list for display
func ToTicketViews(tickets []*entities.Ticket) []TicketView {
	views := make([]TicketView, len(tickets))
	for i, t := range tickets {
		views[i] = ToTicketView(t)
	}
	return views
}

// ToSettlementView converts a settlement summary for display
func ToSettlementView(s *entities.SettlementSummary) SettlementView {
	winners := make([]WinnerView, len(s.Winners))
	for i, w := range s.Winners {
		winners[i] = WinnerView{
			TicketNumber:       w.TicketNumber,
			UserID:             w.UserID,
			PlayType:           string(w.PlayType),
			WinningNumbers:     w.WinningNumbers,
			PaidAmount:         money(w.PaidAmount),
			GrossWinningAmount: money(w.GrossWinningAmount),
			CommissionAmount:   money(w.CommissionAmount),
			FinalWinningAmount: money(w.FinalWinningAmount),
		}
	}
	losers := make([]LoserView, len(s.Losers))
	for i, l := range s.Losers {
		losers[i] = LoserView{
			TicketNumber: l.TicketNumber,
			UserID:       l.UserID,
			PlayType:     string(l.PlayType),
			PaidAmount:   money(l.PaidAmount),
		}
	}
	return SettlementView{
		GameType:                 string(s.GameType),
		GameNumber:               s.GameNumber,
		DrawDate:                 DrawDate(s.GameNumber),
		TotalPlayedAmount:        money(s.TotalPlayedAmount),
		TotalDiscount:            money(s.TotalDiscount),
		TotalPaidAmountInGame:    money(s.TotalPaidAmountInGame),
		TotalWinningAmount:       money(s.TotalWinningAmount),
		TotalActualWinningAmount: money(s.TotalActualWinningAmount),
		AgentCommission:          money(s.AgentCommission),
		Profit:                   money(s.Profit),
		TicketCount:              s.TicketCount,
		WinnerCount:              s.WinnerCount,
		LoserCount:               s.LoserCount,
		Winners:                  winners,
		Losers:                   losers,
		SettledAt:                s.CreatedAt,
	}
}

// ToLedgerEntryView converts a ledger entry for display
func ToLedgerEntryView(e *entities.LedgerEntry) LedgerEntryView {
	return LedgerEntryView{
		ID:              e.ID,
		UserID:          e.UserID,
		ActorID:         e.ActorID,
		Field:           e.Field,
		Delta:           money(e.Delta),
		BalanceBefore:   money(e.BalanceBefore()),
		BalanceAfter:    money(e.BalanceAfter),
		TransactionType: string(e.TransactionType),
		Reason:          e.Reason,
		Metadata:        e.Metadata,
		CreatedAt:       e.CreatedAt,
	}
}

// ToLedgerEntryViews converts ledger entries for display
func ToLedgerEntryViews(entries []*entities.LedgerEntry) []LedgerEntryView {
	views := make([]LedgerEntryView, len(entries))
	for i, e := range entries {
		views[i] = ToLedgerEntryView(e)
	}
	return views
}

// ToPlayView converts an admitted purchase for display
func ToPlayView(ticket *entities.Ticket, balance decimal.Decimal, bonus *entities.ReferralBonus) PlayView {
	view := PlayView{Ticket: ToTicketView(ticket), Balance: money(balance)}
	if bonus != nil {
		amount := money(bonus.Amount)
		view.ReferralBonus = &amount
	}
	return view
}

// ToDrawView converts a draw for display
func ToDrawView(d *entities.Draw) DrawView {
	view := DrawView{
		GameType:   string(d.GameType),
		GameNumber: d.GameNumber,
		DrawDate:   DrawDate(d.GameNumber),
		State:      string(d.State),
	}
	if d.Result != nil {
		view.Results = make(map[string]ResultsView, len(d.Result.Results))
		for base, rs := range d.Result.Results {
			view.Results[string(base)] = ResultsView{
				Straight: rs.Straight,
				Rumble:   d.Result.RumbleSet(base),
				Singles:  rs.Singles,
				Total:    rs.Total,
			}
		}
	}
	return view
}
