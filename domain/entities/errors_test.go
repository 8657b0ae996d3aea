package entities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectedPlay_IsMatchesByReason(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("admit: %w", &RejectedPlay{
		Reason:     RejectGameClosed,
		UserID:     7,
		GameType:   GameTypeLao,
		GameNumber: "20261101",
		Detail:     "closed at 15:00",
	})

	assert.ErrorIs(t, err, ErrGameClosed)
	assert.NotErrorIs(t, err, ErrGameDisabled)
	assert.Equal(t, "admit: play rejected: GameClosed (user 7, draw lao/20261101): closed at 15:00", err.Error())
	assert.False(t, IsRetryable(err))
}

func TestConflictError_IsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := &ConflictError{Kind: ConflictAlreadySettled, Key: "lao/20261101"}

	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.NotErrorIs(t, err, ErrSettlementInProgress)
	assert.Equal(t, "conflict: already_settled (lao/20261101)", err.Error())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient store", &TransientStoreError{Op: "query", Err: errors.New("conn refused")}, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"ticket number conflict", &ConflictError{Kind: ConflictTicketNumber, Key: "TG-20261101-00000001"}, true},
		{"already settled", ErrAlreadySettled, false},
		{"validation", &ValidationError{Field: "numbers", Message: "required"}, false},
		{"incomplete result", &IncompleteResult{Missing: []string{"two_up.straight"}}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestTransientStoreError_Unwrap(t *testing.T) {
	t.Parallel()

	err := &TransientStoreError{Op: "commit", Err: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
}
