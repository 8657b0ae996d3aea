package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"lotto/application"
	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockPlays struct{ mock.Mock }

func (m *mockPlays) Play(ctx context.Context, req interfaces.AdmitRequest) (*interfaces.AdmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AdmitResult), args.Error(1)
}

type mockSettlements struct{ mock.Mock }

func (m *mockSettlements) Settle(ctx context.Context, gameType entities.GameType, gameNumber string, result *entities.DrawResult) (*entities.SettlementSummary, error) {
	args := m.Called(ctx, gameType, gameNumber, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementSummary), args.Error(1)
}

type mockResults struct{ mock.Mock }

func (m *mockResults) PublishResult(ctx context.Context, result *entities.DrawResult) (*entities.Draw, error) {
	args := m.Called(ctx, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

type mockQueries struct{ mock.Mock }

func (m *mockQueries) ListTickets(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *mockQueries) FindTicket(ctx context.Context, ticketNumber string) (*entities.Ticket, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Ticket), args.Error(1)
}

func (m *mockQueries) FindSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error) {
	args := m.Called(ctx, gameType, gameNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementSummary), args.Error(1)
}

func (m *mockQueries) ListLedgerEntries(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

type mockGames struct{ mock.Mock }

func (m *mockGames) GetGame(ctx context.Context, gameType entities.GameType) (*application.GameConfig, error) {
	args := m.Called(ctx, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.GameConfig), args.Error(1)
}

func (m *mockGames) UpdateSetting(ctx context.Context, setting *entities.GameSetting) error {
	return m.Called(ctx, setting).Error(0)
}

func (m *mockGames) UpdatePermission(ctx context.Context, permission *entities.GamePermission) error {
	return m.Called(ctx, permission).Error(0)
}

type testServer struct {
	plays       *mockPlays
	settlements *mockSettlements
	results     *mockResults
	queries     *mockQueries
	games       *mockGames
	svc         Services
}

func newTestServer() *testServer {
	s := &testServer{
		plays:       &mockPlays{},
		settlements: &mockSettlements{},
		results:     &mockResults{},
		queries:     &mockQueries{},
		games:       &mockGames{},
	}
	s.svc = Services{
		Plays:       s.plays,
		Settlements: s.settlements,
		Results:     s.results,
		Queries:     s.queries,
		Games:       s.games,
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	NewRouter(s.svc, "").ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func testTicket() *entities.Ticket {
	return &entities.Ticket{
		ID:           1,
		TicketNumber: "LA-20261101-00000001",
		UserID:       7,
		GameType:     entities.GameTypeLao,
		PlayType:     entities.PlayTypeTwoUp,
		GameNumber:   "20261101",
		Numbers:      []entities.NumberEntry{{Number: "56", Straight: decimal.NewFromInt(100)}},
		PlayedAmount: decimal.NewFromInt(100),
		Discount:     decimal.NewFromInt(10),
		PaidAmount:   decimal.NewFromInt(90),
		CreatedAt:    time.Date(2026, time.October, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestPlays_Create(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.plays.On("Play", mock.Anything, mock.MatchedBy(func(req interfaces.AdmitRequest) bool {
		return req.UserID == 7 &&
			req.GameType == entities.GameTypeLao &&
			req.PlayType == entities.PlayTypeTwoUp &&
			len(req.Numbers) == 1 &&
			req.Numbers[0].Straight.Equal(decimal.NewFromInt(100)) &&
			req.PlayedAmount.Equal(decimal.NewFromInt(100))
	})).Return(&interfaces.AdmitResult{
		Ticket:  testTicket(),
		Balance: decimal.NewFromInt(910),
		ReferralBonus: &entities.ReferralBonus{
			Amount: decimal.RequireFromString("4.5"),
		},
	}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/plays", map[string]any{
		"gameType":     "lao",
		"playType":     "two_up",
		"gameNumber":   "20261101",
		"numbers":      []map[string]any{{"number": "56", "straight": "100"}},
		"playedAmount": 100,
	}, map[string]string{headerUserID: "7"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "910.00", body["balance"])
	assert.Equal(t, "4.50", body["referralBonus"])
	ticket := body["ticket"].(map[string]any)
	assert.Equal(t, "LA-20261101-00000001", ticket["ticketNumber"])
	assert.Equal(t, "90.00", ticket["paidAmount"])
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
	s.plays.AssertExpectations(t)
}

func TestPlays_Create_RequiresUser(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	rec := s.do(t, http.MethodPost, "/api/v1/plays", map[string]any{}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	s.plays.AssertNotCalled(t, "Play", mock.Anything, mock.Anything)
}

func TestPlays_Create_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
		wantValue  any
	}{
		{
			name:       "validation",
			err:        &entities.ValidationError{Field: "numbers", Message: "bad"},
			wantStatus: http.StatusBadRequest,
			wantKey:    "field",
			wantValue:  "numbers",
		},
		{
			name:       "rejected",
			err:        &entities.RejectedPlay{Reason: entities.RejectInsufficientBalance},
			wantStatus: http.StatusUnprocessableEntity,
			wantKey:    "reason",
			wantValue:  "InsufficientBalance",
		},
		{
			name:       "conflict",
			err:        &entities.ConflictError{Kind: entities.ConflictTicketNumber, Key: "LA-20261101-00000001"},
			wantStatus: http.StatusConflict,
			wantKey:    "kind",
			wantValue:  "ticket_number",
		},
		{
			name:       "draw still open",
			err:        &entities.ConflictError{Kind: entities.ConflictDrawStillOpen, Key: "lao/20261101"},
			wantStatus: http.StatusConflict,
			wantKey:    "kind",
			wantValue:  "draw_still_open",
		},
		{
			name:       "transient",
			err:        &entities.TransientStoreError{Op: "admit", Err: context.DeadlineExceeded},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer()
			s.plays.On("Play", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := s.do(t, http.MethodPost, "/api/v1/plays", map[string]any{
				"gameType":   "lao",
				"playType":   "two_up",
				"gameNumber": "20261101",
				"numbers":    []map[string]any{{"number": "56", "straight": "100"}},
			}, map[string]string{headerUserID: "7"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantKey != "" {
				assert.Equal(t, tt.wantValue, decodeBody(t, rec)[tt.wantKey])
			}
		})
	}
}

func TestPlays_Create_InvalidBody(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	rec := s.do(t, http.MethodPost, "/api/v1/plays", map[string]any{
		"gameType": "lao",
		"numbers":  []map[string]any{},
	}, map[string]string{headerUserID: "7"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.plays.AssertNotCalled(t, "Play", mock.Anything, mock.Anything)
}

func TestTickets_List(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.queries.On("ListTickets", mock.Anything, mock.MatchedBy(func(f entities.TicketFilter) bool {
		return f.UserID != nil && *f.UserID == 7 &&
			f.GameType != nil && *f.GameType == entities.GameTypeLao &&
			f.GameNumber == nil &&
			f.Limit == 20 && f.Offset == 40
	})).Return([]*entities.Ticket{testTicket()}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/tickets?userId=7&gameType=lao&limit=20&offset=40", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["count"])
	s.queries.AssertExpectations(t)
}

func TestTickets_List_InvalidQuery(t *testing.T) {
	t.Parallel()

	for _, query := range []string{"userId=abc", "limit=0", "limit=x", "offset=-1"} {
		t.Run(query, func(t *testing.T) {
			t.Parallel()

			s := newTestServer()
			rec := s.do(t, http.MethodGet, "/api/v1/tickets?"+query, nil, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTickets_Get(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.queries.On("FindTicket", mock.Anything, "LA-20261101-00000001").Return(testTicket(), nil)
	s.queries.On("FindTicket", mock.Anything, "missing").Return(nil, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/tickets/LA-20261101-00000001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-11-01", decodeBody(t, rec)["drawDate"])

	rec = s.do(t, http.MethodGet, "/api/v1/tickets/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraws_PublishResult(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.results.On("PublishResult", mock.Anything, mock.MatchedBy(func(r *entities.DrawResult) bool {
		return r.GameType == entities.GameTypeThaiGov &&
			r.GameNumber == "20261101" &&
			r.Results[entities.PlayTypeThreeUp].Straight == "112"
	})).Return(&entities.Draw{
		GameType:   entities.GameTypeThaiGov,
		GameNumber: "20261101",
		State:      entities.DrawStateResultPublished,
		Result: &entities.DrawResult{
			GameType:   entities.GameTypeThaiGov,
			GameNumber: "20261101",
			Results: map[entities.PlayType]entities.ResultSet{
				entities.PlayTypeThreeUp: {Straight: "112"},
			},
		},
	}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/draws/thai_gov/20261101/result", map[string]any{
		"results": map[string]any{"three_up": map[string]any{"straight": "112"}},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "result_published", body["state"])
	results := body["results"].(map[string]any)["three_up"].(map[string]any)
	assert.Equal(t, []any{"112", "121", "211"}, results["rumble"])
}

func TestDraws_Settle(t *testing.T) {
	t.Parallel()

	summary := &entities.SettlementSummary{
		GameType:              entities.GameTypeLao,
		GameNumber:            "20261101",
		TotalPaidAmountInGame: decimal.NewFromInt(135),
		Profit:                decimal.NewFromInt(135),
		TicketCount:           2,
		LoserCount:            2,
	}

	t.Run("stored result", func(t *testing.T) {
		t.Parallel()

		s := newTestServer()
		s.settlements.On("Settle", mock.Anything, entities.GameTypeLao, "20261101", (*entities.DrawResult)(nil)).Return(summary, nil)

		rec := s.do(t, http.MethodPost, "/api/v1/draws/lao/20261101/settle", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "135.00", decodeBody(t, rec)["profit"])
	})

	t.Run("already settled", func(t *testing.T) {
		t.Parallel()

		s := newTestServer()
		s.settlements.On("Settle", mock.Anything, entities.GameTypeLao, "20261101", mock.Anything).Return(nil, entities.ErrAlreadySettled)

		rec := s.do(t, http.MethodPost, "/api/v1/draws/lao/20261101/settle", map[string]any{
			"results": map[string]any{"two_up": map[string]any{"straight": "56"}},
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already_settled", decodeBody(t, rec)["kind"])
	})

	t.Run("incomplete result", func(t *testing.T) {
		t.Parallel()

		s := newTestServer()
		s.settlements.On("Settle", mock.Anything, entities.GameTypeLao, "20261101", mock.Anything).Return(nil, &entities.IncompleteResult{
			GameType:   entities.GameTypeLao,
			GameNumber: "20261101",
			Missing:    []string{"two_down.straight"},
		})

		rec := s.do(t, http.MethodPost, "/api/v1/draws/lao/20261101/settle", nil, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, []any{"two_down.straight"}, decodeBody(t, rec)["missing"])
	})
}

func TestDraws_GetSettlement_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.queries.On("FindSettlement", mock.Anything, entities.GameTypeHanoi, "20261101").Return(nil, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/draws/hanoi/20261101/settlement", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_Ledger(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.queries.On("ListLedgerEntries", mock.Anything, int64(7), 5).Return([]*entities.LedgerEntry{}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/users/7/ledger?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeBody(t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/v1/users/zero/ledger", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGames_Get(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.games.On("GetGame", mock.Anything, entities.GameTypeLao).Return(&application.GameConfig{
		Permission: &entities.GamePermission{GameType: entities.GameTypeLao, IsAvailableLotteryGame: true, CanPlayLotteryGame: true},
		PlayTypes:  []entities.PlayType{entities.PlayTypeTwoUp},
	}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/games/lao", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"two_up"}, body["playTypes"])
	assert.Nil(t, body["setting"])
	assert.Equal(t, true, body["permission"].(map[string]any)["canPlayLotteryGame"])
}

func TestGames_UpdateSetting(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.games.On("UpdateSetting", mock.Anything, mock.MatchedBy(func(setting *entities.GameSetting) bool {
		return setting.GameType == entities.GameTypeLao &&
			setting.GameStopHour == "15:00" &&
			setting.Discounts[entities.PlayTypeTwoUp].Standard.Equal(decimal.NewFromInt(10))
	})).Return(nil)

	rec := s.do(t, http.MethodPut, "/api/v1/games/lao/setting", map[string]any{
		"discounts":    map[string]any{"two_up": map[string]any{"standard": "10"}},
		"gameStopHour": "15:00",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/v1/games/lao/setting", map[string]any{"gameStopHour": "3pm"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.games.AssertNumberOfCalls(t, "UpdateSetting", 1)
}

func TestGames_UpdatePermission(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.games.On("UpdatePermission", mock.Anything, mock.MatchedBy(func(p *entities.GamePermission) bool {
		return p.GameType == entities.GameTypeMalay && p.IsAvailableLotteryGame && !p.CanPlayLotteryGame
	})).Return(nil)

	rec := s.do(t, http.MethodPut, "/api/v1/games/malay/permission", map[string]any{
		"isAvailableLotteryGame": true,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.games.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.svc.HealthChecks = map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}
	rec := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.svc.HealthChecks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	rec = s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["components"].(map[string]any)["redis"])
}
