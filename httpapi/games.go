package httpapi

import (
	"net/http"

	"lotto/application"
	"lotto/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type gameSettingRequest struct {
	Discounts              map[entities.PlayType]entities.DiscountRates `json:"discounts"`
	Payouts                map[entities.PlayType]entities.PayoutRates   `json:"payouts"`
	GameStopHour           string                                       `json:"gameStopHour" binding:"required"`
	MinimumAmountForPlay   decimal.Decimal                              `json:"minimumAmountForPlay"`
	AgentCommissionPercent decimal.Decimal                              `json:"agentCommissionPercent"`
}

type gamePermissionRequest struct {
	IsAvailableLotteryGame      bool `json:"isAvailableLotteryGame"`
	CanPlayLotteryGame          bool `json:"canPlayLotteryGame"`
	IsAvailableSingleDigitGame  bool `json:"isAvailableSingleDigitGame"`
	IsAvailableGameTotal        bool `json:"isAvailableGameTotal"`
	EnableLastDayDiscounts      bool `json:"enableLastDayDiscounts"`
	RemovePlayDiscountOnLastDay bool `json:"removePlayDiscountOnLastDay"`
}

type gameSettingView struct {
	Discounts              map[entities.PlayType]entities.DiscountRates `json:"discounts"`
	Payouts                map[entities.PlayType]entities.PayoutRates   `json:"payouts"`
	GameStopHour           string                                       `json:"gameStopHour"`
	MinimumAmountForPlay   decimal.Decimal                              `json:"minimumAmountForPlay"`
	AgentCommissionPercent decimal.Decimal                              `json:"agentCommissionPercent"`
}

type gameView struct {
	GameType   entities.GameType      `json:"gameType"`
	Setting    *gameSettingView       `json:"setting"`
	Permission *gamePermissionRequest `json:"permission"`
	PlayTypes  []entities.PlayType    `json:"playTypes"`
}

func toGameView(gameType entities.GameType, game *application.GameConfig) gameView {
	view := gameView{GameType: gameType, PlayTypes: game.PlayTypes}
	if s := game.Setting; s != nil {
		view.Setting = &gameSettingView{
			Discounts:              s.Discounts,
			Payouts:                s.Payouts,
			GameStopHour:           s.GameStopHour,
			MinimumAmountForPlay:   s.MinimumAmountForPlay,
			AgentCommissionPercent: s.AgentCommissionPercent,
		}
	}
	if p := game.Permission; p != nil {
		view.Permission = &gamePermissionRequest{
			IsAvailableLotteryGame:      p.IsAvailableLotteryGame,
			CanPlayLotteryGame:          p.CanPlayLotteryGame,
			IsAvailableSingleDigitGame:  p.IsAvailableSingleDigitGame,
			IsAvailableGameTotal:        p.IsAvailableGameTotal,
			EnableLastDayDiscounts:      p.EnableLastDayDiscounts,
			RemovePlayDiscountOnLastDay: p.RemovePlayDiscountOnLastDay,
		}
	}
	if view.PlayTypes == nil {
		view.PlayTypes = []entities.PlayType{}
	}
	return view
}

type gameHandler struct {
	games GameAdminService
}

func (h *gameHandler) Get(c *gin.Context) {
	gameType := entities.GameType(c.Param("gameType"))

	game, err := h.games.GetGame(c.Request.Context(), gameType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGameView(gameType, game))
}

func (h *gameHandler) UpdateSetting(c *gin.Context) {
	var req gameSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	setting := &entities.GameSetting{
		GameType:               entities.GameType(c.Param("gameType")),
		Discounts:              req.Discounts,
		Payouts:                req.Payouts,
		GameStopHour:           req.GameStopHour,
		MinimumAmountForPlay:   req.MinimumAmountForPlay,
		AgentCommissionPercent: req.AgentCommissionPercent,
	}
	if _, _, err := setting.StopTime(); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.games.UpdateSetting(c.Request.Context(), setting); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game setting updated"})
}

func (h *gameHandler) UpdatePermission(c *gin.Context) {
	var req gamePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	permission := &entities.GamePermission{
		GameType:                    entities.GameType(c.Param("gameType")),
		IsAvailableLotteryGame:      req.IsAvailableLotteryGame,
		CanPlayLotteryGame:          req.CanPlayLotteryGame,
		IsAvailableSingleDigitGame:  req.IsAvailableSingleDigitGame,
		IsAvailableGameTotal:        req.IsAvailableGameTotal,
		EnableLastDayDiscounts:      req.EnableLastDayDiscounts,
		RemovePlayDiscountOnLastDay: req.RemovePlayDiscountOnLastDay,
	}

	if err := h.games.UpdatePermission(c.Request.Context(), permission); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game permission updated"})
}
