package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/domain"
)

// MemoryPartnerRepo keeps partners in process memory. Aggregates are cloned
// on the way in and out, so callers never share state with the store.
type MemoryPartnerRepo struct {
	mu       sync.RWMutex
	partners map[uuid.UUID]*domain.Partner
}

func NewMemoryPartnerRepo(partners ...*domain.Partner) *MemoryPartnerRepo {
	r := &MemoryPartnerRepo{partners: make(map[uuid.UUID]*domain.Partner)}
	for _, p := range partners {
		r.Put(p)
	}
	return r
}

// Put stores p as is, replacing any previous partner with the same id.
func (r *MemoryPartnerRepo) Put(p *domain.Partner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[p.ID] = p.Clone()
}

func (r *MemoryPartnerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.partners[id]
	if !ok {
		return nil, domain.ErrPartnerNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryPartnerRepo) Update(ctx context.Context, p *domain.Partner) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.partners[p.ID]
	if !ok || stored.Version != p.Version {
		return domain.ErrConcurrentUpdate
	}

	p.Version++
	r.partners[p.ID] = p.Clone()
	return nil
}
