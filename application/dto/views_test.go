package dto

import (
	"testing"
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDrawDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		gameNumber string
		want       string
	}{
		{"20261101", "2026-11-01"},
		{"20240229", "2024-02-29"},
		{"2026-11-01", "2026-11-01"},
		{"bogus", "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.gameNumber, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DrawDate(tt.gameNumber))
		})
	}
}

func TestToTicketView(t *testing.T) {
	t.Parallel()

	settledAt := time.Date(2026, time.November, 1, 17, 0, 0, 0, time.UTC)
	ticket := &entities.Ticket{
		TicketNumber: "TG-20261101-00000007",
		UserID:       7,
		GameType:     entities.GameTypeThaiGov,
		PlayType:     entities.PlayTypeThreeUp,
		GameNumber:   "20261101",
		Numbers: []entities.NumberEntry{
			{Number: "123", Straight: d("10"), Rumble: d("5.5")},
		},
		PlayedAmount: d("15.5"),
		Discount:     d("1.55"),
		PaidAmount:   d("13.95"),
		SettledAt:    &settledAt,
	}

	view := ToTicketView(ticket)
	assert.Equal(t, "2026-11-01", view.DrawDate)
	assert.Equal(t, "15.50", view.PlayedAmount)
	assert.Equal(t, "1.55", view.Discount)
	assert.Equal(t, "13.95", view.PaidAmount)
	require.Len(t, view.Numbers, 1)
	assert.Equal(t, "10.00", view.Numbers[0].Straight)
	assert.Equal(t, "5.50", view.Numbers[0].Rumble)
	assert.True(t, view.Settled)

	assert.Len(t, ToTicketViews([]*entities.Ticket{ticket, ticket}), 2)
	assert.Empty(t, ToTicketViews(nil))
}

func TestToSettlementView(t *testing.T) {
	t.Parallel()

	summary := &entities.SettlementSummary{
		GameType:                 entities.GameTypeLao,
		GameNumber:               "20261101",
		TotalPlayedAmount:        d("100"),
		TotalDiscount:            d("10"),
		TotalPaidAmountInGame:    d("90"),
		TotalWinningAmount:       d("50"),
		TotalActualWinningAmount: d("47.5"),
		AgentCommission:          d("2.5"),
		Profit:                   d("40"),
		Winners: []entities.WinningDetail{{
			TicketNumber:       "LA-20261101-00000001",
			PlayType:           entities.PlayTypeTwoUp,
			WinningNumbers:     []string{"56"},
			PaidAmount:         d("45"),
			GrossWinningAmount: d("50"),
			CommissionAmount:   d("2.5"),
			FinalWinningAmount: d("47.5"),
		}},
		Losers: []entities.ParticipantDetail{{
			TicketNumber: "LA-20261101-00000002",
			PlayType:     entities.PlayTypeTwoDown,
			PaidAmount:   d("45"),
		}},
		TicketCount: 2,
		WinnerCount: 1,
		LoserCount:  1,
	}

	view := ToSettlementView(summary)
	assert.Equal(t, "47.50", view.TotalActualWinningAmount)
	assert.Equal(t, "2.50", view.AgentCommission)
	assert.Equal(t, "40.00", view.Profit)
	require.Len(t, view.Winners, 1)
	assert.Equal(t, "47.50", view.Winners[0].FinalWinningAmount)
	require.Len(t, view.Losers, 1)
	assert.Equal(t, "45.00", view.Losers[0].PaidAmount)
}

func TestToLedgerEntryView(t *testing.T) {
	t.Parallel()

	entry := &entities.LedgerEntry{
		ID:              3,
		UserID:          7,
		Field:           entities.LedgerFieldAvailableAmount,
		Delta:           d("-13.95"),
		BalanceAfter:    d("86.05"),
		TransactionType: entities.TransactionTypePlayDebit,
		Reason:          "TG-20261101-00000007",
	}

	view := ToLedgerEntryView(entry)
	assert.Equal(t, "-13.95", view.Delta)
	assert.Equal(t, "100.00", view.BalanceBefore)
	assert.Equal(t, "86.05", view.BalanceAfter)
	assert.Equal(t, "play_debit", view.TransactionType)
}

func TestToPlayView(t *testing.T) {
	t.Parallel()

	ticket := &entities.Ticket{TicketNumber: "LA-20261101-00000001", GameNumber: "20261101"}

	view := ToPlayView(ticket, d("910"), nil)
	assert.Equal(t, "910.00", view.Balance)
	assert.Nil(t, view.ReferralBonus)

	view = ToPlayView(ticket, d("910"), &entities.ReferralBonus{Amount: d("4.5")})
	require.NotNil(t, view.ReferralBonus)
	assert.Equal(t, "4.50", *view.ReferralBonus)
}

func TestToDrawView_DerivesRumbleSet(t *testing.T) {
	t.Parallel()

	draw := &entities.Draw{
		GameType:   entities.GameTypeHanoi,
		GameNumber: "20261101",
		State:      entities.DrawStateResultPublished,
		Result: &entities.DrawResult{
			Results: map[entities.PlayType]entities.ResultSet{
				entities.PlayTypeThreeUp: {Straight: "112"},
			},
		},
	}

	view := ToDrawView(draw)
	assert.Equal(t, "result_published", view.State)
	assert.Equal(t, []string{"112", "121", "211"}, view.Results["three_up"].Rumble)

	assert.Nil(t, ToDrawView(&entities.Draw{GameNumber: "20261101"}).Results)
}
