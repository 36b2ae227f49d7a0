package domain

import "errors"

var (
	ErrPartnerNotFound  = errors.New("partner not found")
	ErrLimitNotFound    = errors.New("limit not found")
	ErrPartnerNotActive = errors.New("partner not active")
	ErrInvalidLimit     = errors.New("limit must be greater than zero")
	ErrLimitTooLarge    = errors.New("limit exceeds the maximum allowed value")
	ErrInvalidEndDate   = errors.New("end date is required")
	ErrConcurrentUpdate = errors.New("partner was modified concurrently")
	ErrLockNotAcquired  = errors.New("partner is locked by another operation")
)

// Kind classifies an error for transports that need to render it.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// KindOf reports the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrPartnerNotFound), errors.Is(err, ErrLimitNotFound):
		return KindNotFound
	case errors.Is(err, ErrPartnerNotActive):
		return KindInvalidState
	case errors.Is(err, ErrInvalidLimit), errors.Is(err, ErrLimitTooLarge), errors.Is(err, ErrInvalidEndDate):
		return KindValidation
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrLockNotAcquired):
		return KindConflict
	default:
		return KindInternal
	}
}
