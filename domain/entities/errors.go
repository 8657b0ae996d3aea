package entities

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed or missing caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// RejectReason names the admission precondition that failed
type RejectReason string

const (
	RejectNotInitialized      RejectReason = "NotInitialized"
	RejectGameDisabled        RejectReason = "GameDisabled"
	RejectBelowMinimum        RejectReason = "BelowMinimum"
	RejectGameUnavailable     RejectReason = "GameUnavailable"
	RejectGameClosed          RejectReason = "GameClosed"
	RejectUserBlocked         RejectReason = "UserBlocked"
	RejectUserNotFound        RejectReason = "UserNotFound"
	RejectInsufficientBalance RejectReason = "InsufficientBalance"
)

// RejectedPlay is a business-rule rejection. It is never retried automatically.
type RejectedPlay struct {
	Reason     RejectReason
	UserID     int64
	GameType   GameType
	GameNumber string
	Detail     string
}

func (e *RejectedPlay) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "play rejected: %s", e.Reason)
	if e.UserID != 0 {
		fmt.Fprintf(&b, " (user %d", e.UserID)
		if e.GameType != "" {
			fmt.Fprintf(&b, ", draw %s", DrawKey(e.GameType, e.GameNumber))
		}
		b.WriteString(")")
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

// Is matches any RejectedPlay with the same reason
func (e *RejectedPlay) Is(target error) bool {
	t, ok := target.(*RejectedPlay)
	return ok && t.Reason == e.Reason
}

// Sentinels for errors.Is
var (
	ErrNotInitialized      = &RejectedPlay{Reason: RejectNotInitialized}
	ErrGameDisabled        = &RejectedPlay{Reason: RejectGameDisabled}
	ErrBelowMinimum        = &RejectedPlay{Reason: RejectBelowMinimum}
	ErrGameUnavailable     = &RejectedPlay{Reason: RejectGameUnavailable}
	ErrGameClosed          = &RejectedPlay{Reason: RejectGameClosed}
	ErrUserBlocked         = &RejectedPlay{Reason: RejectUserBlocked}
	ErrUserNotFound        = &RejectedPlay{Reason: RejectUserNotFound}
	ErrInsufficientBalance = &RejectedPlay{Reason: RejectInsufficientBalance}
)

// ConflictKind names what collided
type ConflictKind string

const (
	ConflictTicketNumber         ConflictKind = "ticket_number"
	ConflictAlreadySettled       ConflictKind = "already_settled"
	ConflictSettlementInProgress ConflictKind = "settlement_in_progress"
	ConflictResultMismatch       ConflictKind = "result_mismatch"
	ConflictDrawStillOpen        ConflictKind = "draw_still_open"
)

// ConflictError reports a uniqueness or state-transition collision. Only
// ticket number conflicts are worth retrying.
type ConflictError struct {
	Kind ConflictKind
	Key  string
}

func (e *ConflictError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("conflict: %s", e.Kind)
	}
	return fmt.Sprintf("conflict: %s (%s)", e.Kind, e.Key)
}

// Is matches any ConflictError of the same kind
func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Kind == e.Kind
}

var (
	ErrTicketNumberConflict = &ConflictError{Kind: ConflictTicketNumber}
	ErrAlreadySettled       = &ConflictError{Kind: ConflictAlreadySettled}
	ErrSettlementInProgress = &ConflictError{Kind: ConflictSettlementInProgress}
	ErrResultMismatch       = &ConflictError{Kind: ConflictResultMismatch}
	ErrDrawStillOpen        = &ConflictError{Kind: ConflictDrawStillOpen}
)

// IncompleteResult reports a draw result lacking sub-results needed to settle
type IncompleteResult struct {
	GameType   GameType
	GameNumber string
	Missing    []string
}

func (e *IncompleteResult) Error() string {
	return fmt.Sprintf("incomplete result for draw %s: missing %s",
		DrawKey(e.GameType, e.GameNumber), strings.Join(e.Missing, ", "))
}

// TransientStoreError wraps a timeout or unavailability of a collaborator
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store failure during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the failed operation
func IsRetryable(err error) bool {
	var transient *TransientStoreError
	if errors.As(err, &transient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, ErrTicketNumberConflict)
}
