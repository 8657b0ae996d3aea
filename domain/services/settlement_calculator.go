package services

import (
	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// EntryMatch is one winning stake of a number entry
type EntryMatch struct {
	Number string
	Kind   entities.MatchKind
	Stake  decimal.Decimal
}

// MatchEntry returns the stakes of entry that win against result for playType
func MatchEntry(playType entities.PlayType, entry entities.NumberEntry, result *entities.DrawResult) []EntryMatch {
	rs, ok := result.Results[playType.Base()]
	if !ok {
		return nil
	}

	var matches []EntryMatch
	switch playType.Variant() {
	case entities.PlayVariantStraight:
		if entry.Straight.IsPositive() && entry.Number == rs.Straight {
			matches = append(matches, EntryMatch{Number: entry.Number, Kind: entities.MatchKindStraight, Stake: entry.Straight})
		}
		if playType.SupportsRumble() && entry.Rumble.IsPositive() && contains(result.RumbleSet(playType.Base()), entry.Number) {
			matches = append(matches, EntryMatch{Number: entry.Number, Kind: entities.MatchKindRumble, Stake: entry.Rumble})
		}
	case entities.PlayVariantSingle:
		if entry.Straight.IsPositive() && contains(rs.Singles, entry.Number) {
			matches = append(matches, EntryMatch{Number: entry.Number, Kind: entities.MatchKindStraight, Stake: entry.Straight})
		}
	case entities.PlayVariantTotal:
		if entry.Straight.IsPositive() && rs.Total != "" && entry.Number == rs.Total {
			matches = append(matches, EntryMatch{Number: entry.Number, Kind: entities.MatchKindStraight, Stake: entry.Straight})
		}
	}
	return matches
}

// TicketOutcome is the settled result of a single ticket
type TicketOutcome struct {
	Ticket         *entities.Ticket
	WinningNumbers []string
	Gross          decimal.Decimal
	Commission     decimal.Decimal
	Net            decimal.Decimal
}

// IsWinner returns true if any entry of the ticket won
func (o TicketOutcome) IsWinner() bool {
	return o.Gross.IsPositive()
}

// EvaluateTicket computes the gross, commission and net winnings of a ticket.
// Each winning stake contributes round2(stake * pct / 100).
func EvaluateTicket(ticket *entities.Ticket, result *entities.DrawResult, setting *entities.GameSetting) TicketOutcome {
	outcome := TicketOutcome{Ticket: ticket, Gross: decimal.Zero}
	for _, entry := range ticket.Numbers {
		for _, m := range MatchEntry(ticket.PlayType, entry, result) {
			contribution := entities.PercentOf(m.Stake, setting.WinningPercent(ticket.PlayType, m.Kind))
			if !contribution.IsPositive() {
				continue
			}
			outcome.Gross = outcome.Gross.Add(contribution)
			if !contains(outcome.WinningNumbers, m.Number) {
				outcome.WinningNumbers = append(outcome.WinningNumbers, m.Number)
			}
		}
	}
	outcome.Commission = entities.PercentOf(outcome.Gross, setting.AgentCommissionPercent)
	outcome.Net = outcome.Gross.Sub(outcome.Commission)
	return outcome
}

// BuildSettlementSummary evaluates every ticket of a draw and aggregates the
// totals. Profit is paid minus net winnings minus commission.
func BuildSettlementSummary(gameType entities.GameType, gameNumber string, tickets []*entities.Ticket, result *entities.DrawResult, setting *entities.GameSetting) (*entities.SettlementSummary, []TicketOutcome) {
	summary := &entities.SettlementSummary{
		GameType:                 gameType,
		GameNumber:               gameNumber,
		TotalPlayedAmount:        decimal.Zero,
		TotalDiscount:            decimal.Zero,
		TotalPaidAmountInGame:    decimal.Zero,
		TotalWinningAmount:       decimal.Zero,
		TotalActualWinningAmount: decimal.Zero,
		AgentCommission:          decimal.Zero,
		Winners:                  []entities.WinningDetail{},
		Losers:                   []entities.ParticipantDetail{},
	}

	outcomes := make([]TicketOutcome, 0, len(tickets))
	for _, ticket := range tickets {
		outcome := EvaluateTicket(ticket, result, setting)
		outcomes = append(outcomes, outcome)

		summary.TotalPlayedAmount = summary.TotalPlayedAmount.Add(ticket.PlayedAmount)
		summary.TotalDiscount = summary.TotalDiscount.Add(ticket.Discount)
		summary.TotalPaidAmountInGame = summary.TotalPaidAmountInGame.Add(ticket.PaidAmount)

		if !outcome.IsWinner() {
			summary.Losers = append(summary.Losers, entities.ParticipantDetail{
				TicketNumber: ticket.TicketNumber,
				UserID:       ticket.UserID,
				PlayType:     ticket.PlayType,
				PaidAmount:   ticket.PaidAmount,
			})
			continue
		}

		summary.TotalWinningAmount = summary.TotalWinningAmount.Add(outcome.Gross)
		summary.TotalActualWinningAmount = summary.TotalActualWinningAmount.Add(outcome.Net)
		summary.AgentCommission = summary.AgentCommission.Add(outcome.Commission)
		summary.Winners = append(summary.Winners, entities.WinningDetail{
			TicketNumber:       ticket.TicketNumber,
			UserID:             ticket.UserID,
			PlayType:           ticket.PlayType,
			WinningNumbers:     outcome.WinningNumbers,
			PaidAmount:         ticket.PaidAmount,
			GrossWinningAmount: outcome.Gross,
			CommissionAmount:   outcome.Commission,
			FinalWinningAmount: outcome.Net,
		})
	}

	summary.Profit = summary.TotalPaidAmountInGame.
		Sub(summary.TotalActualWinningAmount).
		Sub(summary.AgentCommission)
	summary.TicketCount = len(tickets)
	summary.WinnerCount = len(summary.Winners)
	summary.LoserCount = len(summary.Losers)
	return summary, outcomes
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
