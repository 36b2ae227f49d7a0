package domain

import (
	"time"

	"github.com/google/uuid"
)

// Partner issues promo codes against its active limit. The limits slice is
// only changed through RotateLimit so that at most one limit stays active.
type Partner struct {
	ID                     uuid.UUID
	Name                   string
	IsActive               bool
	NumberIssuedPromoCodes int
	// Version is bumped by the store on every successful update.
	Version int64

	limits []PartnerPromoCodeLimit
}

// RestorePartner rebuilds a partner aggregate from persisted state.
func RestorePartner(id uuid.UUID, name string, isActive bool, issued int, version int64, limits []PartnerPromoCodeLimit) *Partner {
	p := &Partner{
		ID:                     id,
		Name:                   name,
		IsActive:               isActive,
		NumberIssuedPromoCodes: issued,
		Version:                version,
		limits:                 make([]PartnerPromoCodeLimit, 0, len(limits)),
	}
	for _, l := range limits {
		l = l.clone()
		l.PartnerID = id
		p.limits = append(p.limits, l)
	}
	return p
}

// Limits returns a copy of the partner's limits in insertion order.
func (p *Partner) Limits() []PartnerPromoCodeLimit {
	out := make([]PartnerPromoCodeLimit, len(p.limits))
	for i, l := range p.limits {
		out[i] = l.clone()
	}
	return out
}

// Limit finds a limit by id.
func (p *Partner) Limit(id uuid.UUID) (PartnerPromoCodeLimit, bool) {
	for _, l := range p.limits {
		if l.ID == id {
			return l.clone(), true
		}
	}
	return PartnerPromoCodeLimit{}, false
}

// CurrentLimit returns the active limit or, when none is active, the one
// created last.
func (p *Partner) CurrentLimit() (PartnerPromoCodeLimit, bool) {
	i := p.currentIndex()
	if i < 0 {
		return PartnerPromoCodeLimit{}, false
	}
	return p.limits[i].clone(), true
}

func (p *Partner) currentIndex() int {
	latest := -1
	for i, l := range p.limits {
		if l.IsActive() {
			return i
		}
		if latest < 0 || !l.CreateDate.Before(p.limits[latest].CreateDate) {
			latest = i
		}
	}
	return latest
}

// RotateLimit cancels the current limit as of now and installs a new active
// one. The issued counter is reset only when the superseded limit was active.
func (p *Partner) RotateLimit(now, endDate time.Time, limit int) (PartnerPromoCodeLimit, error) {
	if err := ValidateLimit(limit); err != nil {
		return PartnerPromoCodeLimit{}, err
	}
	if endDate.IsZero() {
		return PartnerPromoCodeLimit{}, ErrInvalidEndDate
	}

	today := DateOf(now)

	if i := p.currentIndex(); i >= 0 {
		current := &p.limits[i]
		wasActive := current.IsActive()
		cancel := today
		current.CancelDate = &cancel
		if wasActive {
			p.NumberIssuedPromoCodes = 0
		}
	}

	next := PartnerPromoCodeLimit{
		ID:         uuid.New(),
		PartnerID:  p.ID,
		CreateDate: today,
		EndDate:    DateOf(endDate),
		Limit:      limit,
	}
	p.limits = append(p.limits, next)
	return next.clone(), nil
}

// Clone returns a deep copy of the aggregate.
func (p *Partner) Clone() *Partner {
	return RestorePartner(p.ID, p.Name, p.IsActive, p.NumberIssuedPromoCodes, p.Version, p.limits)
}
