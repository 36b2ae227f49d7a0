package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/domain"
	"github.com/set-night/promolimits/internal/domain/partnertest"
	"github.com/set-night/promolimits/internal/lock"
	"github.com/set-night/promolimits/internal/repository"
)

var fixedNow = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// countingStore records how often Update is called.
type countingStore struct {
	*repository.MemoryPartnerRepo

	mu      sync.Mutex
	updates int
	failErr error
}

func newCountingStore(partners ...*domain.Partner) *countingStore {
	return &countingStore{MemoryPartnerRepo: repository.NewMemoryPartnerRepo(partners...)}
}

func (s *countingStore) Update(ctx context.Context, p *domain.Partner) error {
	s.mu.Lock()
	s.updates++
	failErr := s.failErr
	s.mu.Unlock()
	if failErr != nil {
		return failErr
	}
	return s.MemoryPartnerRepo.Update(ctx, p)
}

func (s *countingStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

type recordingNotifier struct {
	calls    int
	previous *domain.PartnerPromoCodeLimit
	created  domain.PartnerPromoCodeLimit
}

func (n *recordingNotifier) LimitRotated(_ context.Context, _ *domain.Partner, previous *domain.PartnerPromoCodeLimit, created domain.PartnerPromoCodeLimit) {
	n.calls++
	n.previous = previous
	n.created = created
}

func request(limit int) SetLimitRequest {
	return SetLimitRequest{EndDate: fixedNow.AddDate(0, 1, 0), Limit: limit}
}

func TestInspectLimit_PartnerNotFound(t *testing.T) {
	store := newCountingStore()
	svc := NewLimitService(store, WithClock(clock))

	_, err := svc.InspectLimit(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, domain.ErrPartnerNotFound) {
		t.Fatalf("expected ErrPartnerNotFound, got %v", err)
	}
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected NotFound kind, got %s", domain.KindOf(err))
	}
}

func TestInspectLimit_PartnerNotActive(t *testing.T) {
	p := partnertest.New().WithIsActive(false).Build()
	svc := NewLimitService(newCountingStore(p), WithClock(clock))

	_, err := svc.InspectLimit(context.Background(), p.ID, uuid.New())
	if !errors.Is(err, domain.ErrPartnerNotActive) {
		t.Fatalf("expected ErrPartnerNotActive, got %v", err)
	}
}

func TestInspectLimit_LimitNotFound(t *testing.T) {
	p := partnertest.New().WithLimits(partnertest.ActiveLimit(10, fixedNow)).Build()
	svc := NewLimitService(newCountingStore(p), WithClock(clock))

	_, err := svc.InspectLimit(context.Background(), p.ID, uuid.New())
	if !errors.Is(err, domain.ErrLimitNotFound) {
		t.Fatalf("expected ErrLimitNotFound, got %v", err)
	}
}

func TestInspectLimit_ReturnsLimitWithoutWriting(t *testing.T) {
	l := partnertest.ActiveLimit(10, fixedNow.AddDate(0, -1, 0))
	p := partnertest.New().WithName("acme").WithNumberIssuedPromoCodes(3).WithLimits(l).Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	info, err := svc.InspectLimit(context.Background(), p.ID, l.ID)
	if err != nil {
		t.Fatalf("InspectLimit: %v", err)
	}
	if info.PartnerName != "acme" || info.NumberIssuedPromoCodes != 3 || info.Limit.ID != l.ID || info.Limit.Limit != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if store.Updates() != 0 {
		t.Fatalf("InspectLimit must not write, got %d updates", store.Updates())
	}
}

func TestSetLimit_PartnerNotFound(t *testing.T) {
	store := newCountingStore()
	svc := NewLimitService(store, WithClock(clock))

	_, err := svc.SetLimit(context.Background(), uuid.New(), request(10))
	if !errors.Is(err, domain.ErrPartnerNotFound) {
		t.Fatalf("expected ErrPartnerNotFound, got %v", err)
	}
	if store.Updates() != 0 {
		t.Fatalf("expected no updates, got %d", store.Updates())
	}
}

func TestSetLimit_ActiveLimitResetsIssuedCodes(t *testing.T) {
	p := partnertest.New().
		WithNumberIssuedPromoCodes(1).
		WithLimits(partnertest.ActiveLimit(15, fixedNow.AddDate(0, -1, 0))).
		Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	created, err := svc.SetLimit(context.Background(), p.ID, request(10))
	if err != nil {
		t.Fatalf("SetLimit: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), p.ID)
	if stored.NumberIssuedPromoCodes != 0 {
		t.Fatalf("expected NumberIssuedPromoCodes=0, got %d", stored.NumberIssuedPromoCodes)
	}
	cur, ok := stored.CurrentLimit()
	if !ok || cur.ID != created.ID || cur.Limit != 10 || !cur.IsActive() {
		t.Fatalf("expected new active limit of 10, got %+v", cur)
	}
}

func TestSetLimit_CanceledLimitKeepsIssuedCodes(t *testing.T) {
	p := partnertest.New().
		WithNumberIssuedPromoCodes(5).
		WithLimits(partnertest.CanceledLimit(15, fixedNow.AddDate(0, -2, 0), fixedNow.AddDate(0, -1, 0))).
		Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	if _, err := svc.SetLimit(context.Background(), p.ID, request(8)); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), p.ID)
	if stored.NumberIssuedPromoCodes != 5 {
		t.Fatalf("expected NumberIssuedPromoCodes=5, got %d", stored.NumberIssuedPromoCodes)
	}
}

func TestSetLimit_CancelsPreviousLimitToday(t *testing.T) {
	old := partnertest.ActiveLimit(25, fixedNow.AddDate(0, -1, 0))
	p := partnertest.New().WithNumberIssuedPromoCodes(1).WithLimits(old).Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	if _, err := svc.SetLimit(context.Background(), p.ID, request(30)); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), p.ID)
	prev, ok := stored.Limit(old.ID)
	if !ok {
		t.Fatalf("previous limit disappeared")
	}
	if prev.CancelDate == nil || !prev.CancelDate.Equal(domain.DateOf(fixedNow)) {
		t.Fatalf("expected cancel date %s, got %v", domain.DateOf(fixedNow), prev.CancelDate)
	}

	active := 0
	for _, l := range stored.Limits() {
		if l.IsActive() {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active limit, got %d", active)
	}
}

func TestSetLimit_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -100} {
		p := partnertest.New().
			WithNumberIssuedPromoCodes(1).
			WithLimits(partnertest.ActiveLimit(25, fixedNow.AddDate(0, -1, 0))).
			Build()
		store := newCountingStore(p)
		svc := NewLimitService(store, WithClock(clock))

		_, err := svc.SetLimit(context.Background(), p.ID, request(limit))
		if !errors.Is(err, domain.ErrInvalidLimit) {
			t.Fatalf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("limit %d: expected Validation kind, got %s", limit, domain.KindOf(err))
		}
		if store.Updates() != 0 {
			t.Fatalf("limit %d: expected no updates, got %d", limit, store.Updates())
		}
	}
}

func TestSetLimit_UpdatesExactlyOnce(t *testing.T) {
	p := partnertest.New().
		WithNumberIssuedPromoCodes(1).
		WithLimits(partnertest.ActiveLimit(25, fixedNow.AddDate(0, -1, 0))).
		Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	if _, err := svc.SetLimit(context.Background(), p.ID, SetLimitRequest{EndDate: fixedNow, Limit: 10}); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	if store.Updates() != 1 {
		t.Fatalf("expected exactly one update, got %d", store.Updates())
	}
}

func TestSetLimit_InactivePartner(t *testing.T) {
	cases := []struct {
		name    string
		require bool
		wantErr error
	}{
		{"allowed by default", false, nil},
		{"rejected when required", true, domain.ErrPartnerNotActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := partnertest.New().WithIsActive(false).Build()
			store := newCountingStore(p)
			svc := NewLimitService(store, WithClock(clock), WithRequireActivePartner(tc.require))

			_, err := svc.SetLimit(context.Background(), p.ID, request(10))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			wantUpdates := 1
			if tc.wantErr != nil {
				wantUpdates = 0
			}
			if store.Updates() != wantUpdates {
				t.Fatalf("expected %d updates, got %d", wantUpdates, store.Updates())
			}
		})
	}
}

func TestSetLimit_StoreFailurePropagates(t *testing.T) {
	p := partnertest.New().Build()
	store := newCountingStore(p)
	store.failErr = domain.ErrConcurrentUpdate
	notifier := &recordingNotifier{}
	svc := NewLimitService(store, WithClock(clock), WithNotifier(notifier))

	_, err := svc.SetLimit(context.Background(), p.ID, request(10))
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected Conflict kind, got %v", err)
	}
	if notifier.calls != 0 {
		t.Fatalf("notifier must not be called on failure")
	}
}

func TestSetLimit_NotifiesWithCanceledPrevious(t *testing.T) {
	old := partnertest.ActiveLimit(25, fixedNow.AddDate(0, -1, 0))
	p := partnertest.New().WithLimits(old).Build()
	notifier := &recordingNotifier{}
	svc := NewLimitService(newCountingStore(p), WithClock(clock), WithNotifier(notifier))

	created, err := svc.SetLimit(context.Background(), p.ID, request(10))
	if err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	if notifier.calls != 1 || notifier.created.ID != created.ID {
		t.Fatalf("unexpected notification: %+v", notifier)
	}
	if notifier.previous == nil || notifier.previous.ID != old.ID || notifier.previous.IsActive() {
		t.Fatalf("expected canceled previous limit, got %+v", notifier.previous)
	}
}

func TestSetLimit_ConcurrentRotationsWithLocker(t *testing.T) {
	p := partnertest.New().
		WithNumberIssuedPromoCodes(9).
		WithLimits(partnertest.ActiveLimit(25, fixedNow.AddDate(0, -1, 0))).
		Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock), WithLocker(lock.NewLocal()))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(limit int) {
			defer wg.Done()
			_, err := svc.SetLimit(context.Background(), p.ID, request(limit))
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("SetLimit: %v", err)
		}
	}

	stored, _ := store.GetByID(context.Background(), p.ID)
	if n := len(stored.Limits()); n != workers+1 {
		t.Fatalf("expected %d limits, got %d", workers+1, n)
	}
	active := 0
	for _, l := range stored.Limits() {
		if l.IsActive() {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active limit, got %d", active)
	}
}

func TestSetLimit_ConcurrentRotationsWithoutLockerConflict(t *testing.T) {
	p := partnertest.New().Build()
	store := newCountingStore(p)
	svc := NewLimitService(store, WithClock(clock))

	first, _ := store.GetByID(context.Background(), p.ID)
	if _, err := svc.SetLimit(context.Background(), p.ID, request(10)); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}

	// A writer holding the pre-rotation snapshot loses.
	if _, err := first.RotateLimit(fixedNow, fixedNow, 3); err != nil {
		t.Fatalf("RotateLimit: %v", err)
	}
	if err := store.Update(context.Background(), first); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
}
