package application

import (
	"context"
	"time"

	"lotto/domain/entities"
)

// DrawLocker serializes settlement runs of one draw across engine instances
type DrawLocker interface {
	// TryLock acquires key for ttl. acquired is false when another owner holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// SettingsInvalidator drops cached configuration of a game type. It runs after
// the change committed, so readers cannot re-cache the old row.
type SettingsInvalidator interface {
	InvalidateGame(ctx context.Context, gameType entities.GameType) error
}

// Metrics records engine activity
type Metrics interface {
	RecordPlayAdmitted(gameType entities.GameType, playType entities.PlayType)
	RecordPlayRejected(gameType entities.GameType, reason string)
	RecordDrawSettled(gameType entities.GameType, winners int, duration time.Duration)
	RecordSettlementFailed(gameType entities.GameType, errorType string)
	RecordLedgerMutation(transactionType entities.TransactionType)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordPlayAdmitted(entities.GameType, entities.PlayType) {}
func (NoopMetrics) RecordPlayRejected(entities.GameType, string) {}
func (NoopMetrics) RecordDrawSettled(entities.GameType, int, time.Duration) {}
func (NoopMetrics) RecordSettlementFailed(entities.GameType, string) {}
func (NoopMetrics) RecordLedgerMutation(entities.TransactionType) {}
