package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// PartnerPromoCodeLimit is a time-bounded quota owned by a partner.
// A nil CancelDate marks the active limit.
type PartnerPromoCodeLimit struct {
	ID         uuid.UUID
	PartnerID  uuid.UUID
	CreateDate time.Time
	CancelDate *time.Time
	EndDate    time.Time
	Limit      int
}

func (l PartnerPromoCodeLimit) IsActive() bool {
	return l.CancelDate == nil
}

func (l PartnerPromoCodeLimit) clone() PartnerPromoCodeLimit {
	if l.CancelDate != nil {
		d := *l.CancelDate
		l.CancelDate = &d
	}
	return l
}

// MaxLimit is the largest quota the limit_value INTEGER column holds.
const MaxLimit = math.MaxInt32

// ValidateLimit checks the requested quota ceiling.
func ValidateLimit(limit int) error {
	if limit <= 0 {
		return ErrInvalidLimit
	}
	if limit > MaxLimit {
		return ErrLimitTooLarge
	}
	return nil
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
