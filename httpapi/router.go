package httpapi

import (
	"context"

	"lotto/application"
	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/gin-gonic/gin"
)

// PlayService admits ticket purchases
type PlayService interface {
	Play(ctx context.Context, req interfaces.AdmitRequest) (*interfaces.AdmitResult, error)
}

// SettlementService settles draws
type SettlementService interface {
	Settle(ctx context.Context, gameType entities.GameType, gameNumber string, result *entities.DrawResult) (*entities.SettlementSummary, error)
}

// ResultService records published draw results
type ResultService interface {
	PublishResult(ctx context.Context, result *entities.DrawResult) (*entities.Draw, error)
}

// QueryService serves read-only lookups
type QueryService interface {
	ListTickets(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error)
	FindTicket(ctx context.Context, ticketNumber string) (*entities.Ticket, error)
	FindSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error)
	ListLedgerEntries(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)
}

// GameAdminService reads and replaces game configuration
type GameAdminService interface {
	GetGame(ctx context.Context, gameType entities.GameType) (*application.GameConfig, error)
	UpdateSetting(ctx context.Context, setting *entities.GameSetting) error
	UpdatePermission(ctx context.Context, permission *entities.GamePermission) error
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Services bundles the application handlers the router serves
type Services struct {
	Plays        PlayService
	Settlements  SettlementService
	Results      ResultService
	Queries      QueryService
	Games        GameAdminService
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the HTTP API
func NewRouter(svc Services, environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	health := &healthHandler{checks: svc.HealthChecks}
	router.GET("/health", health.Check)

	plays := &playHandler{plays: svc.Plays}
	tickets := &ticketHandler{queries: svc.Queries}
	draws := &drawHandler{results: svc.Results, settlements: svc.Settlements, queries: svc.Queries}
	users := &userHandler{queries: svc.Queries}
	games := &gameHandler{games: svc.Games}

	api := router.Group("/api/v1")
	{
		api.POST("/plays", RequireUser(), plays.Create)

		api.GET("/tickets", tickets.List)
		api.GET("/tickets/:ticketNumber", tickets.Get)

		drawRoutes := api.Group("/draws/:gameType/:gameNumber")
		{
			drawRoutes.POST("/result", draws.PublishResult)
			drawRoutes.POST("/settle", draws.Settle)
			drawRoutes.GET("/settlement", draws.GetSettlement)
		}

		api.GET("/users/:id/ledger", users.Ledger)

		gameRoutes := api.Group("/games/:gameType")
		{
			gameRoutes.GET("", games.Get)
			gameRoutes.PUT("/setting", games.UpdateSetting)
			gameRoutes.PUT("/permission", games.UpdatePermission)
		}
	}

	return router
}
