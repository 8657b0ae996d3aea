package testutil

import (
	"fmt"
	"time"

	"lotto/domain/entities"

	"github.com/shopspring/decimal"
)

// CreateTestUser creates a player with the given balance
func CreateTestUser(username string, balance string) *entities.User {
	return &entities.User{
		Username:        username,
		Role:            entities.UserRoleUser,
		AvailableAmount: decimal.RequireFromString(balance),
	}
}

// CreateTestAgent creates an agent account that can receive referral bonuses
func CreateTestAgent(username string) *entities.User {
	user := CreateTestUser(username, "0")
	user.Role = entities.UserRoleAgent
	return user
}

// CreateTestSetting creates a fully configured setting for a game type
func CreateTestSetting(gameType entities.GameType, playTypes []entities.PlayType) *entities.GameSetting {
	discounts := make(map[entities.PlayType]entities.DiscountRates)
	payouts := make(map[entities.PlayType]entities.PayoutRates)
	for _, pt := range playTypes {
		discounts[pt] = entities.DiscountRates{
			Standard: decimal.NewFromInt(10),
			Special:  decimal.NewFromInt(15),
			LastDay:  decimal.NewFromInt(20),
		}
		payouts[pt] = entities.PayoutRates{Straight: decimal.NewFromInt(90)}
	}
	return &entities.GameSetting{
		GameType:               gameType,
		Discounts:              discounts,
		Payouts:                payouts,
		GameStopHour:           "15:00",
		MinimumAmountForPlay:   decimal.NewFromInt(10),
		AgentCommissionPercent: decimal.NewFromInt(5),
	}
}

// CreateTestPermission creates a permission with every sub-game available
func CreateTestPermission(gameType entities.GameType) *entities.GamePermission {
	return &entities.GamePermission{
		GameType:                   gameType,
		IsAvailableLotteryGame:     true,
		CanPlayLotteryGame:         true,
		IsAvailableSingleDigitGame: true,
		IsAvailableGameTotal:       true,
	}
}

// CreateTestTicket creates a single-number straight ticket
func CreateTestTicket(seq int, userID int64, gameType entities.GameType, gameNumber string, playType entities.PlayType, number, stake string) *entities.Ticket {
	amount := decimal.RequireFromString(stake)
	return &entities.Ticket{
		TicketNumber: fmt.Sprintf("%s-%s-%08d", gameType.TicketPrefix(), gameNumber, seq),
		UserID:       userID,
		GameType:     gameType,
		PlayType:     playType,
		GameNumber:   gameNumber,
		Numbers: []entities.NumberEntry{
			{Number: number, Straight: amount, Rumble: decimal.Zero},
		},
		PlayedAmount:     amount,
		Discount:         decimal.Zero,
		PaidAmount:       amount,
		IsOriginalTicket: true,
	}
}

// CreateTestResult creates a result covering every straight, single and total sub-result
func CreateTestResult(gameType entities.GameType, gameNumber string) *entities.DrawResult {
	return &entities.DrawResult{
		GameType:   gameType,
		GameNumber: gameNumber,
		Results: map[entities.PlayType]entities.ResultSet{
			entities.PlayTypeThreeUp: {Straight: "234", Singles: []string{"2", "3", "4"}, Total: "9"},
			entities.PlayTypeTwoUp:   {Straight: "56", Singles: []string{"5", "6"}, Total: "1"},
			entities.PlayTypeTwoDown: {Straight: "12", Singles: []string{"1", "2"}, Total: "3"},
		},
		PublishedAt: time.Date(2026, time.November, 1, 16, 0, 0, 0, time.UTC),
	}
}
