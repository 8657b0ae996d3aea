package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"
	"lotto/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementMocks struct {
	settingsRepo   *testhelpers.MockGameSettingsRepository
	drawRepo       *testhelpers.MockDrawRepository
	ticketRepo     *testhelpers.MockTicketRepository
	settlementRepo *testhelpers.MockSettlementRepository
	ledger         *testhelpers.MockLedgerMutator
	eventPublisher *testhelpers.MockEventPublisher
}

func setupSettlementService() (*SettlementService, *settlementMocks) {
	return setupSettlementServiceAt(testSettleTime)
}

func setupSettlementServiceAt(now time.Time) (*SettlementService, *settlementMocks) {
	m := &settlementMocks{
		settingsRepo:   new(testhelpers.MockGameSettingsRepository),
		drawRepo:       new(testhelpers.MockDrawRepository),
		ticketRepo:     new(testhelpers.MockTicketRepository),
		settlementRepo: new(testhelpers.MockSettlementRepository),
		ledger:         new(testhelpers.MockLedgerMutator),
		eventPublisher: new(testhelpers.MockEventPublisher),
	}
	service := NewSettlementService(
		m.settingsRepo, m.drawRepo, m.ticketRepo, m.settlementRepo, m.ledger, m.eventPublisher,
		testhelpers.FixedClock{T: now},
		EngineOptions{GamesEnabled: true, SystemAccountID: testSystemID, Location: time.UTC},
	)
	return service, m
}

// straightsOnlyPermission disables the single and total sub-games
func straightsOnlyPermission() *entities.GamePermission {
	p := createTestPermission(entities.GameTypeThaiGov)
	p.IsAvailableSingleDigitGame = false
	p.IsAvailableGameTotal = false
	return p
}

func expectSettlementReads(m *settlementMocks, draw *entities.Draw, permission *entities.GamePermission, tickets []*entities.Ticket) {
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil).Once()
	m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(draw, nil).Once()
	m.settingsRepo.On("GetSetting", mock.Anything, entities.GameTypeThaiGov).Return(createTestSetting(entities.GameTypeThaiGov), nil)
	m.settingsRepo.On("GetPermission", mock.Anything, entities.GameTypeThaiGov).Return(permission, nil)
	m.ticketRepo.On("ListByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(tickets, nil)
}

func TestSettlementService_Settle_CreditsWinners(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	ctx := context.Background()
	drawKey := entities.DrawKey(entities.GameTypeThaiGov, testGameNumber)

	tickets := []*entities.Ticket{
		createTestTicket("T1", 11, entities.PlayTypeThreeUp, straight("234", "50")),
		createTestTicket("T2", 12, entities.PlayTypeThreeUp, straight("432", "50")),
		createTestTicket("T3", 13, entities.PlayTypeThreeUp, rumble("342", "20")),
	}
	for i, ticket := range tickets {
		ticket.ID = int64(i + 1)
	}
	stored := &entities.Draw{
		GameType:   entities.GameTypeThaiGov,
		GameNumber: testGameNumber,
		State:      entities.DrawStateResultPublished,
		Result:     createTestResult(),
	}
	expectSettlementReads(m, stored, straightsOnlyPermission(), tickets)

	m.drawRepo.On("BeginSettlement", ctx, stored.Result).Return(true, nil)
	m.settlementRepo.On("Create", ctx, mock.AnythingOfType("*entities.SettlementSummary")).Return(nil)

	credited := make(map[int64]decimal.Decimal)
	m.ledger.On("ApplyDelta", ctx, mock.MatchedBy(func(mu interfaces.LedgerMutation) bool {
		return mu.TransactionType == entities.TransactionTypeDrawWin && mu.Reason == drawKey
	})).Run(func(args mock.Arguments) {
		mu := args.Get(1).(interfaces.LedgerMutation)
		credited[mu.UserID] = mu.Delta
		assert.Equal(t, drawKey+":"+mu.Metadata["ticket_number"].(string), mu.IdempotencyKey)
		assert.Equal(t, testSystemID, mu.ActorID)
	}).Return(&interfaces.LedgerResult{Entry: &entities.LedgerEntry{}}, nil)
	m.ticketRepo.On("MarkSettled", ctx, []int64{1, 2, 3}, testSettleTime).Return(int64(3), nil)
	m.drawRepo.On("CompleteSettlement", ctx, entities.GameTypeThaiGov, testGameNumber).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return(nil)

	summary, err := service.Settle(ctx, entities.GameTypeThaiGov, testGameNumber, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.WinnerCount)
	assert.Equal(t, 1, summary.LoserCount)
	assertMoney(t, "114", summary.TotalActualWinningAmount)
	assert.True(t, summary.ProfitBalances())

	require.Len(t, credited, 2)
	assertMoney(t, "95", credited[11])
	assertMoney(t, "19", credited[13])
	total := decimal.Zero
	for _, amount := range credited {
		total = total.Add(amount)
	}
	assert.True(t, total.Equal(summary.TotalCredited()), "credits must equal summary net winnings")

	m.drawRepo.AssertExpectations(t)
	m.settlementRepo.AssertExpectations(t)
	m.ticketRepo.AssertExpectations(t)
}

func TestSettlementService_Settle_AlreadySettled(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).
		Return(&entities.SettlementSummary{ID: 1}, nil)

	summary, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, createTestResult())

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, entities.ErrAlreadySettled)
	assert.False(t, entities.IsRetryable(err))
	m.ledger.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything)
	m.drawRepo.AssertNotCalled(t, "BeginSettlement", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_DrawAlreadyInSettledState(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
	m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).
		Return(&entities.Draw{State: entities.DrawStateSettled, Result: createTestResult()}, nil)

	_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, nil)

	assert.ErrorIs(t, err, entities.ErrAlreadySettled)
}

func TestSettlementService_Settle_IncompleteResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		permission  *entities.GamePermission
		tickets     []*entities.Ticket
		mutate      func(*entities.DrawResult)
		wantMissing []string
		// found only once the tickets are listed inside the settling transaction
		fromTickets bool
	}{
		{
			name:        "enabled straight sub-game missing",
			permission:  straightsOnlyPermission(),
			mutate:      func(r *entities.DrawResult) { delete(r.Results, entities.PlayTypeTwoDown) },
			wantMissing: []string{"two_down.straight"},
		},
		{
			name:       "enabled singles missing",
			permission: createTestPermission(entities.GameTypeThaiGov),
			mutate: func(r *entities.DrawResult) {
				rs := r.Results[entities.PlayTypeTwoUp]
				rs.Singles = nil
				r.Results[entities.PlayTypeTwoUp] = rs
			},
			wantMissing: []string{"two_up.singles"},
		},
		{
			name:       "ticket on disabled total still needs its result",
			permission: straightsOnlyPermission(),
			tickets: []*entities.Ticket{
				createTestTicket("T1", 11, entities.PlayTypeThreeUpTotal, straight("9", "10")),
			},
			mutate: func(r *entities.DrawResult) {
				rs := r.Results[entities.PlayTypeThreeUp]
				rs.Total = ""
				r.Results[entities.PlayTypeThreeUp] = rs
			},
			wantMissing: []string{"three_up.total"},
			fromTickets: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, m := setupSettlementService()
			result := createTestResult()
			tt.mutate(result)
			expectSettlementReads(m, nil, tt.permission, tt.tickets)
			if tt.fromTickets {
				m.drawRepo.On("BeginSettlement", mock.Anything, result).Return(true, nil)
			}

			summary, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, result)

			assert.Nil(t, summary)
			var incomplete *entities.IncompleteResult
			require.True(t, errors.As(err, &incomplete), "got %v", err)
			assert.Equal(t, tt.wantMissing, incomplete.Missing)
			if !tt.fromTickets {
				m.drawRepo.AssertNotCalled(t, "BeginSettlement", mock.Anything, mock.Anything)
			}
			m.settlementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			m.ledger.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything)
			m.ticketRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSettlementService_Settle_LostRace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		afterRace entities.DrawState
		want      error
	}{
		{"other run still settling", entities.DrawStateSettling, entities.ErrSettlementInProgress},
		{"other run finished", entities.DrawStateSettled, entities.ErrAlreadySettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, m := setupSettlementService()
			expectSettlementReads(m, nil, straightsOnlyPermission(), nil)
			m.drawRepo.On("BeginSettlement", mock.Anything, mock.Anything).Return(false, nil)
			m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).
				Return(&entities.Draw{State: tt.afterRace}, nil).Once()

			_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, createTestResult())

			assert.ErrorIs(t, err, tt.want)
			m.settlementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSettlementService_Settle_ResultMismatch(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
	m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(&entities.Draw{
		State:  entities.DrawStateResultPublished,
		Result: createTestResult(),
	}, nil)

	other := createTestResult()
	other.Results[entities.PlayTypeTwoUp] = entities.ResultSet{Straight: "99"}

	_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, other)

	assert.ErrorIs(t, err, entities.ErrResultMismatch)
}

func TestSettlementService_Settle_NoResult(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
	m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)

	_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, nil)

	var validation *entities.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "result", validation.Field)
}

func TestSettlementService_Settle_CreditFailureAborts(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	tickets := []*entities.Ticket{createTestTicket("T1", 11, entities.PlayTypeThreeUp, straight("234", "50"))}
	expectSettlementReads(m, nil, straightsOnlyPermission(), tickets)
	m.drawRepo.On("BeginSettlement", mock.Anything, mock.Anything).Return(true, nil)
	m.settlementRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.ledger.On("ApplyDelta", mock.Anything, mock.Anything).Return(nil, &entities.TransientStoreError{Op: "adjust", Err: context.DeadlineExceeded})

	_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, createTestResult())

	require.Error(t, err)
	assert.True(t, entities.IsRetryable(err))
	m.ticketRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	m.drawRepo.AssertNotCalled(t, "CompleteSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_InvalidInput(t *testing.T) {
	t.Parallel()

	service, _ := setupSettlementService()

	_, err := service.Settle(context.Background(), "bingo", testGameNumber, nil)
	var validation *entities.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "gameType", validation.Field)

	_, err = service.Settle(context.Background(), entities.GameTypeLao, "2026-11-01", nil)
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "gameNumber", validation.Field)
}

func TestSettlementService_Settle_MalformedResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*entities.DrawResult)
		wantField string
	}{
		{
			name: "non digit straights",
			mutate: func(r *entities.DrawResult) {
				r.Results[entities.PlayTypeThreeUp] = entities.ResultSet{Straight: "2x"}
				r.Results[entities.PlayTypeTwoUp] = entities.ResultSet{Straight: "not-a-number"}
			},
			wantField: "results.",
		},
		{
			name: "rumble entry with wrong length",
			mutate: func(r *entities.DrawResult) {
				r.Results[entities.PlayTypeThreeUp] = entities.ResultSet{Straight: "234", Rumble: []string{"23"}}
			},
			wantField: "results.three_up.rumble",
		},
		{
			name: "variant key instead of base",
			mutate: func(r *entities.DrawResult) {
				r.Results[entities.PlayTypeTwoDownTotal] = entities.ResultSet{Total: "3"}
			},
			wantField: "results.two_down_total",
		},
		{
			name:      "no sub-results",
			mutate:    func(r *entities.DrawResult) { r.Results = nil },
			wantField: "results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, m := setupSettlementService()
			m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
			m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)

			result := createTestResult()
			tt.mutate(result)
			summary, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, result)

			assert.Nil(t, summary)
			var validation *entities.ValidationError
			require.True(t, errors.As(err, &validation), "got %v", err)
			assert.True(t, strings.HasPrefix(validation.Field, tt.wantField), "field %s", validation.Field)
			m.drawRepo.AssertNotCalled(t, "BeginSettlement", mock.Anything, mock.Anything)
			m.ledger.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything)
			m.ticketRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSettlementService_Settle_BeforeStopTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
	}{
		{"morning of the draw", testNow},
		{"one minute before the stop", time.Date(2026, time.November, 1, 14, 59, 0, 0, time.UTC)},
		{"day before the draw", time.Date(2026, time.October, 31, 20, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, m := setupSettlementServiceAt(tt.now)
			expectSettlementReads(m, nil, straightsOnlyPermission(), nil)

			_, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, createTestResult())

			assert.ErrorIs(t, err, entities.ErrDrawStillOpen)
			assert.False(t, entities.IsRetryable(err))
			m.drawRepo.AssertNotCalled(t, "BeginSettlement", mock.Anything, mock.Anything)
			m.ticketRepo.AssertNotCalled(t, "ListByDraw", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSettlementService_Settle_ListsTicketsAfterStateTransition(t *testing.T) {
	t.Parallel()

	service, m := setupSettlementService()
	m.settlementRepo.On("GetByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
	m.drawRepo.On("Get", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil, nil)
	m.settingsRepo.On("GetSetting", mock.Anything, entities.GameTypeThaiGov).Return(createTestSetting(entities.GameTypeThaiGov), nil)
	m.settingsRepo.On("GetPermission", mock.Anything, entities.GameTypeThaiGov).Return(straightsOnlyPermission(), nil)

	// only the tickets read inside the settling transaction are evaluated and stamped
	late := createTestTicket("T9", 19, entities.PlayTypeTwoUp, straight("11", "10"))
	late.ID = 9

	var calls []string
	m.drawRepo.On("BeginSettlement", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, "begin") }).
		Return(true, nil)
	m.ticketRepo.On("ListByDraw", mock.Anything, entities.GameTypeThaiGov, testGameNumber).
		Run(func(mock.Arguments) { calls = append(calls, "list") }).
		Return([]*entities.Ticket{late}, nil)
	m.settlementRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.ticketRepo.On("MarkSettled", mock.Anything, []int64{9}, testSettleTime).Return(int64(1), nil)
	m.drawRepo.On("CompleteSettlement", mock.Anything, entities.GameTypeThaiGov, testGameNumber).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return(nil)

	summary, err := service.Settle(context.Background(), entities.GameTypeThaiGov, testGameNumber, createTestResult())

	require.NoError(t, err)
	assert.Equal(t, []string{"begin", "list"}, calls)
	assert.Equal(t, 1, summary.TicketCount)
	assert.Equal(t, 1, summary.LoserCount)
	m.ticketRepo.AssertExpectations(t)
}
