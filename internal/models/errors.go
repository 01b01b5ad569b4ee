package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotAuthenticated is returned when an operation that requires an
// acting user runs without one. Raised before any entity state is read.
var ErrNotAuthenticated = errors.New("not authenticated")

// Sentinel errors for entity lookups.
var (
	ErrArticleNotFound         = errors.New("article not found")
	ErrBlockNotFound           = errors.New("block not found")
	ErrContentNotFound         = errors.New("content row not found")
	ErrCalculationItemNotFound = errors.New("calculation item not found")
	ErrQuoteNotFound           = errors.New("quote not found")
	ErrQuoteVariantNotFound    = errors.New("quote variant not found")
	ErrQuoteVersionNotFound    = errors.New("quote version not found")
	ErrOpportunityNotFound     = errors.New("sales opportunity not found")
	ErrUserNotFound            = errors.New("user not found")
)

// Sentinel errors for validation.
var (
	ErrMissingName     = errors.New("name is required")
	ErrMissingLanguage = errors.New("language is required")
	ErrMissingTitle    = errors.New("title is required")
	ErrMissingCustomer = errors.New("customer is required")
)

// LockConflictError is returned when an entity is held by a different
// user. It travels unchanged through every layer so the UI can render
// "locked by X since Y".
type LockConflictError struct {
	Kind     EntityKind
	EntityID string
	LockedBy string
	LockedAt time.Time
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("%s %s is locked by user %s since %s",
		string(e.Kind), e.EntityID, e.LockedBy, e.LockedAt.Format(time.RFC3339))
}

// OperationFailedError wraps any persistence failure that is not part of
// the domain error taxonomy. Callers display Message; the cause is logged
// at the service boundary, not exposed.
type OperationFailedError struct {
	Message string
	Err     error
}

func (e *OperationFailedError) Error() string { return e.Message }

func (e *OperationFailedError) Unwrap() error { return e.Err }

// IsDomainError reports whether err belongs to the domain taxonomy and
// must propagate to callers unchanged rather than being wrapped as an
// OperationFailedError.
func IsDomainError(err error) bool {
	var lockErr *LockConflictError
	if errors.As(err, &lockErr) {
		return true
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrArticleNotFound),
		errors.Is(err, ErrBlockNotFound),
		errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrCalculationItemNotFound),
		errors.Is(err, ErrQuoteNotFound),
		errors.Is(err, ErrQuoteVariantNotFound),
		errors.Is(err, ErrQuoteVersionNotFound),
		errors.Is(err, ErrOpportunityNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrMissingLanguage),
		errors.Is(err, ErrMissingTitle),
		errors.Is(err, ErrMissingCustomer):
		return true
	}

	return false
}
