package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lotto/application/dto"
	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type healthHandler struct {
	checks map[string]HealthCheck
}

func (h *healthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "components": components})
}

type numberEntryRequest struct {
	Number   string          `json:"number" binding:"required"`
	Straight decimal.Decimal `json:"straight"`
	Rumble   decimal.Decimal `json:"rumble"`
}

type playRequest struct {
	GameType         entities.GameType    `json:"gameType" binding:"required"`
	PlayType         entities.PlayType    `json:"playType" binding:"required"`
	GameNumber       string               `json:"gameNumber" binding:"required"`
	Numbers          []numberEntryRequest `json:"numbers" binding:"required,min=1,dive"`
	PlayedAmount     decimal.Decimal      `json:"playedAmount"`
	IsOriginalTicket bool                 `json:"isOriginalTicket"`
}

type playHandler struct {
	plays PlayService
}

func (h *playHandler) Create(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	numbers := make([]entities.NumberEntry, len(req.Numbers))
	for i, n := range req.Numbers {
		numbers[i] = entities.NumberEntry{Number: n.Number, Straight: n.Straight, Rumble: n.Rumble}
	}

	result, err := h.plays.Play(c.Request.Context(), interfaces.AdmitRequest{
		UserID:           c.GetInt64(ctxUserID),
		GameType:         req.GameType,
		PlayType:         req.PlayType,
		GameNumber:       req.GameNumber,
		Numbers:          numbers,
		PlayedAmount:     req.PlayedAmount,
		IsOriginalTicket: req.IsOriginalTicket,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPlayView(result.Ticket, result.Balance, result.ReferralBonus))
}

type ticketHandler struct {
	queries QueryService
}

func (h *ticketHandler) List(c *gin.Context) {
	filter, err := ticketFilterFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	tickets, err := h.queries.ListTickets(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": dto.ToTicketViews(tickets),
		"count":   len(tickets),
	})
}

func (h *ticketHandler) Get(c *gin.Context) {
	ticket, err := h.queries.FindTicket(c.Request.Context(), c.Param("ticketNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	c.JSON(http.StatusOK, dto.ToTicketView(ticket))
}

func ticketFilterFromQuery(c *gin.Context) (entities.TicketFilter, error) {
	filter := entities.TicketFilter{}

	if raw := c.Query("userId"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid userId %q", raw)
		}
		filter.UserID = &userID
	}
	if raw := c.Query("gameType"); raw != "" {
		gameType := entities.GameType(raw)
		filter.GameType = &gameType
	}
	if raw := c.Query("gameNumber"); raw != "" {
		filter.GameNumber = &raw
	}

	limit, err := listLimit(c)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset %q", raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func listLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

type resultSetRequest struct {
	Straight string   `json:"straight"`
	Rumble   []string `json:"rumble"`
	Singles  []string `json:"singles"`
	Total    string   `json:"total"`
}

type drawResultRequest struct {
	Results map[entities.PlayType]resultSetRequest `json:"results" binding:"required"`
}

func (r drawResultRequest) toResult(gameType entities.GameType, gameNumber string) *entities.DrawResult {
	results := make(map[entities.PlayType]entities.ResultSet, len(r.Results))
	for base, rs := range r.Results {
		results[base] = entities.ResultSet{
			Straight: rs.Straight,
			Rumble:   rs.Rumble,
			Singles:  rs.Singles,
			Total:    rs.Total,
		}
	}
	return &entities.DrawResult{GameType: gameType, GameNumber: gameNumber, Results: results}
}

type drawHandler struct {
	results     ResultService
	settlements SettlementService
	queries     QueryService
}

func drawKey(c *gin.Context) (entities.GameType, string) {
	return entities.GameType(c.Param("gameType")), c.Param("gameNumber")
}

func (h *drawHandler) PublishResult(c *gin.Context) {
	gameType, gameNumber := drawKey(c)

	var req drawResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draw, err := h.results.PublishResult(c.Request.Context(), req.toResult(gameType, gameNumber))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDrawView(draw))
}

// Settle settles a draw. The body may carry the result; without one the
// stored publication is used.
func (h *drawHandler) Settle(c *gin.Context) {
	gameType, gameNumber := drawKey(c)

	var result *entities.DrawResult
	if c.Request.ContentLength > 0 {
		var req drawResultRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		result = req.toResult(gameType, gameNumber)
	}

	summary, err := h.settlements.Settle(c.Request.Context(), gameType, gameNumber, result)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementView(summary))
}

func (h *drawHandler) GetSettlement(c *gin.Context) {
	gameType, gameNumber := drawKey(c)

	summary, err := h.queries.FindSettlement(c.Request.Context(), gameType, gameNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draw not settled"})
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementView(summary))
}

type userHandler struct {
	queries QueryService
}

func (h *userHandler) Ledger(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(c, fmt.Errorf("invalid user id %q", c.Param("id")))
		return
	}
	limit, err := listLimit(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	entries, err := h.queries.ListLedgerEntries(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": dto.ToLedgerEntryViews(entries),
		"count":   len(entries),
	})
}
