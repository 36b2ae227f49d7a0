package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/promolimits/internal/domain"
)

// PartnerRepo stores partner aggregates in PostgreSQL.
type PartnerRepo struct {
	db *pgxpool.Pool
}

func NewPartnerRepo(db *pgxpool.Pool) *PartnerRepo {
	return &PartnerRepo{db: db}
}

const getPartnerQuery = `
	SELECT id, name, is_active, number_issued_promo_codes, version
	FROM partners
	WHERE id = $1
`

const getPartnerLimitsQuery = `
	SELECT id, create_date, cancel_date, end_date, limit_value
	FROM partner_promo_code_limits
	WHERE partner_id = $1
	ORDER BY create_date, cancel_date NULLS LAST
`

// GetByID loads a partner with all of its limits.
func (r *PartnerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	var (
		partnerID uuid.UUID
		name      string
		isActive  bool
		issued    int32
		version   int64
	)
	err := r.db.QueryRow(ctx, getPartnerQuery, id).Scan(&partnerID, &name, &isActive, &issued, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	rows, err := r.db.Query(ctx, getPartnerLimitsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get partner limits: %w", err)
	}
	defer rows.Close()

	var limits []domain.PartnerPromoCodeLimit
	for rows.Next() {
		var (
			l          domain.PartnerPromoCodeLimit
			createDate pgtype.Date
			cancelDate pgtype.Date
			endDate    pgtype.Date
			value      int32
		)
		if err := rows.Scan(&l.ID, &createDate, &cancelDate, &endDate, &value); err != nil {
			return nil, fmt.Errorf("scan partner limit: %w", err)
		}
		l.CreateDate = pgDateToTime(createDate)
		l.CancelDate = pgDateToTimePtr(cancelDate)
		l.EndDate = pgDateToTime(endDate)
		l.Limit = int(value)
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partner limits: %w", err)
	}

	return domain.RestorePartner(partnerID, name, isActive, int(issued), version, limits), nil
}

const updatePartnerQuery = `
	UPDATE partners
	SET name = $3,
		is_active = $4,
		number_issued_promo_codes = $5,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND version = $2
`

const upsertLimitQuery = `
	INSERT INTO partner_promo_code_limits (id, partner_id, create_date, cancel_date, end_date, limit_value)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE
	SET cancel_date = EXCLUDED.cancel_date,
		end_date = EXCLUDED.end_date,
		limit_value = EXCLUDED.limit_value
`

// Update writes the whole aggregate. It fails with domain.ErrConcurrentUpdate
// when the stored version no longer matches p.Version.
func (r *PartnerRepo) Update(ctx context.Context, p *domain.Partner) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updatePartnerQuery, p.ID, p.Version, p.Name, p.IsActive, p.NumberIssuedPromoCodes)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	// Canceled rows go first so the active-limit unique index never sees two
	// active rows inside the transaction.
	limits := p.Limits()
	sort.SliceStable(limits, func(i, j int) bool {
		return !limits[i].IsActive() && limits[j].IsActive()
	})
	for _, l := range limits {
		if err := domain.ValidateLimit(l.Limit); err != nil {
			return fmt.Errorf("limit %s: %w", l.ID, err)
		}
		if _, err := tx.Exec(ctx, upsertLimitQuery,
			l.ID,
			p.ID,
			timeToPgDate(l.CreateDate),
			timePtrToPgDate(l.CancelDate),
			timeToPgDate(l.EndDate),
			int32(l.Limit),
		); err != nil {
			return fmt.Errorf("upsert limit %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	p.Version++
	return nil
}
