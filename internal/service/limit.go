package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/domain"
)

// PartnerStore loads and saves whole partner aggregates.
type PartnerStore interface {
	// GetByID returns domain.ErrPartnerNotFound when no partner has id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error)
	// Update replaces the stored aggregate and bumps p.Version.
	Update(ctx context.Context, p *domain.Partner) error
}

// Locker serializes operations on the same key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Notifier is told about every committed rotation.
type Notifier interface {
	LimitRotated(ctx context.Context, partner *domain.Partner, previous *domain.PartnerPromoCodeLimit, created domain.PartnerPromoCodeLimit)
}

type SetLimitRequest struct {
	EndDate time.Time
	Limit   int
}

// LimitInfo is what InspectLimit reports about a partner's limit.
type LimitInfo struct {
	PartnerID              uuid.UUID
	PartnerName            string
	IsActive               bool
	NumberIssuedPromoCodes int
	Limit                  domain.PartnerPromoCodeLimit
}

type LimitService struct {
	store                PartnerStore
	locker               Locker
	notifier             Notifier
	now                  func() time.Time
	requireActivePartner bool
}

type Option func(*LimitService)

func WithLocker(l Locker) Option {
	return func(s *LimitService) { s.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *LimitService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *LimitService) { s.now = now }
}

// WithRequireActivePartner makes SetLimit reject inactive partners the same
// way InspectLimit does.
func WithRequireActivePartner(require bool) Option {
	return func(s *LimitService) { s.requireActivePartner = require }
}

func NewLimitService(store PartnerStore, opts ...Option) *LimitService {
	s := &LimitService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LimitService) InspectLimit(ctx context.Context, partnerID, limitID uuid.UUID) (*LimitInfo, error) {
	partner, err := s.store.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	if !partner.IsActive {
		return nil, domain.ErrPartnerNotActive
	}

	limit, ok := partner.Limit(limitID)
	if !ok {
		return nil, domain.ErrLimitNotFound
	}

	return &LimitInfo{
		PartnerID:              partner.ID,
		PartnerName:            partner.Name,
		IsActive:               partner.IsActive,
		NumberIssuedPromoCodes: partner.NumberIssuedPromoCodes,
		Limit:                  limit,
	}, nil
}

// SetLimit cancels the partner's current limit and installs a new one.
// The aggregate is persisted exactly once on success and never on failure.
func (s *LimitService) SetLimit(ctx context.Context, partnerID uuid.UUID, req SetLimitRequest) (domain.PartnerPromoCodeLimit, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "partner:"+partnerID.String())
		if err != nil {
			return domain.PartnerPromoCodeLimit{}, fmt.Errorf("lock partner: %w", err)
		}
		defer unlock()
	}

	partner, err := s.store.GetByID(ctx, partnerID)
	if err != nil {
		return domain.PartnerPromoCodeLimit{}, fmt.Errorf("get partner: %w", err)
	}
	if s.requireActivePartner && !partner.IsActive {
		return domain.PartnerPromoCodeLimit{}, domain.ErrPartnerNotActive
	}
	if err := domain.ValidateLimit(req.Limit); err != nil {
		return domain.PartnerPromoCodeLimit{}, err
	}

	var previous *domain.PartnerPromoCodeLimit
	if cur, ok := partner.CurrentLimit(); ok {
		previous = &cur
	}
	issuedBefore := partner.NumberIssuedPromoCodes

	created, err := partner.RotateLimit(s.now(), req.EndDate, req.Limit)
	if err != nil {
		return domain.PartnerPromoCodeLimit{}, err
	}

	if err := s.store.Update(ctx, partner); err != nil {
		return domain.PartnerPromoCodeLimit{}, fmt.Errorf("update partner: %w", err)
	}

	slog.Info("partner limit rotated",
		"partner_id", partner.ID,
		"limit_id", created.ID,
		"limit", created.Limit,
		"end_date", created.EndDate.Format(time.DateOnly),
		"issued_before", issuedBefore,
		"issued_after", partner.NumberIssuedPromoCodes,
	)

	if s.notifier != nil {
		if previous != nil {
			if p, ok := partner.Limit(previous.ID); ok {
				previous = &p
			}
		}
		s.notifier.LimitRotated(ctx, partner, previous, created)
	}

	return created, nil
}
