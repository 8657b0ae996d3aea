package services

import (
	"testing"
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	testUserID       = int64(100)
	testReferrerID   = int64(200)
	testSystemID     = int64(1)
	testGameNumber   = "20261101"
	testTicketNumber = "TG-20261101-00000001"
)

// testNow is 10:00 on the draw day, five hours before the 15:00 stop
var testNow = time.Date(2026, time.November, 1, 10, 0, 0, 0, time.UTC)

// testSettleTime is an hour after the stop, when results may be recorded
var testSettleTime = time.Date(2026, time.November, 1, 16, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(expected).StringFixed(2), actual.StringFixed(2), msgAndArgs...)
}

func createTestSetting(gameType entities.GameType) *entities.GameSetting {
	rates := entities.DiscountRates{Standard: dec("10"), Special: dec("15"), LastDay: dec("20")}
	discounts := make(map[entities.PlayType]entities.DiscountRates)
	payouts := make(map[entities.PlayType]entities.PayoutRates)
	for _, pt := range NewGameCatalog().PlayTypesFor(gameType) {
		discounts[pt] = rates
		payouts[pt] = entities.PayoutRates{Straight: dec("90"), Rumble: dec("0")}
	}
	payouts[entities.PlayTypeThreeUp] = entities.PayoutRates{Straight: dec("200"), Rumble: dec("100")}
	payouts[entities.PlayTypeThreeUpSingle] = entities.PayoutRates{Straight: dec("300")}
	payouts[entities.PlayTypeTwoDownTotal] = entities.PayoutRates{Straight: dec("700")}

	return &entities.GameSetting{
		GameType:               gameType,
		Discounts:              discounts,
		Payouts:                payouts,
		GameStopHour:           "15:00",
		MinimumAmountForPlay:   dec("10"),
		AgentCommissionPercent: dec("5"),
	}
}

func createTestPermission(gameType entities.GameType) *entities.GamePermission {
	return &entities.GamePermission{
		GameType:                   gameType,
		IsAvailableLotteryGame:     true,
		CanPlayLotteryGame:         true,
		IsAvailableSingleDigitGame: true,
		IsAvailableGameTotal:       true,
	}
}

func createTestUser(id int64, balance string) *entities.User {
	return &entities.User{
		ID:              id,
		Username:        "player",
		Role:            entities.UserRoleUser,
		AvailableAmount: dec(balance),
		CreatedAt:       testNow.Add(-24 * time.Hour),
	}
}

func createTestTicket(ticketNumber string, userID int64, playType entities.PlayType, entries ...entities.NumberEntry) *entities.Ticket {
	played := decimal.Zero
	for _, e := range entries {
		played = played.Add(e.Stake())
	}
	return &entities.Ticket{
		TicketNumber: ticketNumber,
		UserID:       userID,
		GameType:     entities.GameTypeThaiGov,
		PlayType:     playType,
		GameNumber:   testGameNumber,
		Numbers:      entries,
		PlayedAmount: played,
		Discount:     decimal.Zero,
		PaidAmount:   played,
		CreatedAt:    testNow,
	}
}

func straight(number, stake string) entities.NumberEntry {
	return entities.NumberEntry{Number: number, Straight: dec(stake), Rumble: decimal.Zero}
}

func rumble(number, stake string) entities.NumberEntry {
	return entities.NumberEntry{Number: number, Straight: decimal.Zero, Rumble: dec(stake)}
}

// createTestResult covers every straight sub-result of thai_gov
func createTestResult() *entities.DrawResult {
	return &entities.DrawResult{
		GameType:   entities.GameTypeThaiGov,
		GameNumber: testGameNumber,
		Results: map[entities.PlayType]entities.ResultSet{
			entities.PlayTypeFirstPrize: {Straight: "123456", Singles: []string{"1", "2", "3", "4", "5", "6"}, Total: "1"},
			entities.PlayTypeThreeUp:    {Straight: "234", Singles: []string{"2", "3", "4"}, Total: "9"},
			entities.PlayTypeTwoUp:      {Straight: "56", Singles: []string{"5", "6"}, Total: "1"},
			entities.PlayTypeTwoDown:    {Straight: "12", Singles: []string{"1", "2"}, Total: "3"},
		},
		PublishedAt: testNow,
	}
}
