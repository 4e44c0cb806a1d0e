package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Wallet errors
	ErrMsgInsufficientBalance = "insufficient balance"

	// Chest errors
	ErrMsgChestNotFound     = "chest not found"
	ErrMsgChestInactive     = "chest is inactive"
	ErrMsgChestEmpty        = "chest has no active drop entries"
	ErrMsgDropEntryNotFound = "drop entry not found"

	// Quest errors
	ErrMsgQuestNotFound     = "quest not found"
	ErrMsgQuestNotCompleted = "quest is not completed"
	ErrMsgQuestLocked       = "quest is locked"

	// Badge errors
	ErrMsgBadgeNotFound = "badge not found"

	// Configuration errors
	ErrMsgConfigurationInvariantViolated = "configuration invariant violated"

	// Database/System errors
	ErrMsgTxClosed = "tx is closed"
)

// Common domain errors
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)

	ErrInsufficientBalance = errors.New(ErrMsgInsufficientBalance)

	ErrChestNotFound     = errors.New(ErrMsgChestNotFound)
	ErrChestInactive     = errors.New(ErrMsgChestInactive)
	ErrChestEmpty        = errors.New(ErrMsgChestEmpty)
	ErrDropEntryNotFound = errors.New(ErrMsgDropEntryNotFound)

	ErrQuestNotFound     = errors.New(ErrMsgQuestNotFound)
	ErrQuestNotCompleted = errors.New(ErrMsgQuestNotCompleted)
	ErrQuestLocked       = errors.New(ErrMsgQuestLocked)

	ErrBadgeNotFound = errors.New(ErrMsgBadgeNotFound)

	// ErrConfigurationInvariantViolated is returned when a definition cannot be
	// coerced into a valid shape, e.g. a level table that is not strictly increasing.
	ErrConfigurationInvariantViolated = errors.New(ErrMsgConfigurationInvariantViolated)
)
