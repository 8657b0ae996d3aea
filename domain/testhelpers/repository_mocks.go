package testhelpers

import (
	"context"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AdjustAvailableAmount(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) SumByReason(ctx context.Context, reason string, transactionType entities.TransactionType) (decimal.Decimal, error) {
	args := m.Called(ctx, reason, transactionType)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *entities.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.Ticket, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, gameType, gameNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter entities.TicketFilter) ([]*entities.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) MarkSettled(ctx context.Context, ticketIDs []int64, at time.Time) (int64, error) {
	args := m.Called(ctx, ticketIDs, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketNumberGenerator is a mock implementation of TicketNumberGenerator
type MockTicketNumberGenerator struct {
	mock.Mock
}

func (m *MockTicketNumberGenerator) Next(ctx context.Context, gameType entities.GameType, drawDate entities.DrawDateParts) (string, error) {
	args := m.Called(ctx, gameType, drawDate)
	return args.String(0), args.Error(1)
}

// MockGameSettingsRepository is a mock implementation of GameSettingsRepository
type MockGameSettingsRepository struct {
	mock.Mock
}

func (m *MockGameSettingsRepository) GetSetting(ctx context.Context, gameType entities.GameType) (*entities.GameSetting, error) {
	args := m.Called(ctx, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSetting), args.Error(1)
}

func (m *MockGameSettingsRepository) GetPermission(ctx context.Context, gameType entities.GameType) (*entities.GamePermission, error) {
	args := m.Called(ctx, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GamePermission), args.Error(1)
}

func (m *MockGameSettingsRepository) UpsertSetting(ctx context.Context, setting *entities.GameSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockGameSettingsRepository) UpsertPermission(ctx context.Context, permission *entities.GamePermission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Get(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.Draw, error) {
	args := m.Called(ctx, gameType, gameNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) LockForAdmission(ctx context.Context, gameType entities.GameType, gameNumber string) (entities.DrawState, error) {
	args := m.Called(ctx, gameType, gameNumber)
	return args.Get(0).(entities.DrawState), args.Error(1)
}

func (m *MockDrawRepository) SaveResult(ctx context.Context, result *entities.DrawResult) (bool, error) {
	args := m.Called(ctx, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawRepository) BeginSettlement(ctx context.Context, result *entities.DrawResult) (bool, error) {
	args := m.Called(ctx, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawRepository) CompleteSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) error {
	args := m.Called(ctx, gameType, gameNumber)
	return args.Error(0)
}

func (m *MockDrawRepository) ListPendingSettlement(ctx context.Context, before time.Time, limit int) ([]*entities.Draw, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Draw), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, summary *entities.SettlementSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByDraw(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.SettlementSummary, error) {
	args := m.Called(ctx, gameType, gameNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementSummary), args.Error(1)
}

// MockReferralBonusRepository is a mock implementation of ReferralBonusRepository
type MockReferralBonusRepository struct {
	mock.Mock
}

func (m *MockReferralBonusRepository) Create(ctx context.Context, bonus *entities.ReferralBonus) (bool, error) {
	args := m.Called(ctx, bonus)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferralBonusRepository) MarkCredited(ctx context.Context, ticketNumber string, ledgerEntryID int64) error {
	args := m.Called(ctx, ticketNumber, ledgerEntryID)
	return args.Error(0)
}

func (m *MockReferralBonusRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*entities.ReferralBonus, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralBonus), args.Error(1)
}

// MockLedgerMutator is a mock implementation of LedgerMutator
type MockLedgerMutator struct {
	mock.Mock
}

func (m *MockLedgerMutator) ApplyDelta(ctx context.Context, mutation interfaces.LedgerMutation) (*interfaces.LedgerResult, error) {
	args := m.Called(ctx, mutation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LedgerResult), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}
