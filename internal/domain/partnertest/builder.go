// Package partnertest builds Partner aggregates for tests.
package partnertest

import (
	"time"

	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/domain"
)

type Builder struct {
	id       uuid.UUID
	name     string
	isActive bool
	issued   int
	version  int64
	limits   []domain.PartnerPromoCodeLimit
}

// New starts an active partner with a random id and no limits.
func New() *Builder {
	return &Builder{id: uuid.New(), name: "partner", isActive: true}
}

func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) WithIsActive(isActive bool) *Builder {
	b.isActive = isActive
	return b
}

func (b *Builder) WithNumberIssuedPromoCodes(n int) *Builder {
	b.issued = n
	return b
}

func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

func (b *Builder) WithLimits(limits ...domain.PartnerPromoCodeLimit) *Builder {
	b.limits = append(b.limits, limits...)
	return b
}

func (b *Builder) Build() *domain.Partner {
	return domain.RestorePartner(b.id, b.name, b.isActive, b.issued, b.version, b.limits)
}

// ActiveLimit is a limit created on createDate with no cancel date.
func ActiveLimit(limit int, createDate time.Time) domain.PartnerPromoCodeLimit {
	return domain.PartnerPromoCodeLimit{
		ID:         uuid.New(),
		CreateDate: domain.DateOf(createDate),
		EndDate:    domain.DateOf(createDate.AddDate(0, 1, 0)),
		Limit:      limit,
	}
}

// CanceledLimit is a limit canceled on cancelDate.
func CanceledLimit(limit int, createDate, cancelDate time.Time) domain.PartnerPromoCodeLimit {
	l := ActiveLimit(limit, createDate)
	d := domain.DateOf(cancelDate)
	l.CancelDate = &d
	return l
}
