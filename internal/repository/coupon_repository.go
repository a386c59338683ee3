package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const couponColumns = `id, code, description, type, value, max_discount, min_cart_value,
	starts_at, expires_at, is_active, is_referral_code, owner_user_id,
	usage_limit_total, usage_limit_per_user, created_at, updated_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon and fills in its generated id and timestamps.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (code, description, type, value, max_discount, min_cart_value,
		starts_at, expires_at, is_active, is_referral_code, owner_user_id,
		usage_limit_total, usage_limit_per_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.Code,
		coupon.Description,
		string(coupon.Type),
		coupon.Value,
		coupon.MaxDiscount,
		coupon.MinCartValue,
		coupon.StartsAt,
		coupon.ExpiresAt,
		coupon.IsActive,
		coupon.IsReferralCode,
		coupon.OwnerUserID,
		coupon.UsageLimitTotal,
		coupon.UsageLimitPerUser,
	).Scan(&coupon.ID, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its code regardless of its active flag.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// FindActiveByCode retrieves an active coupon by its code. Inactive coupons
// are indistinguishable from unknown ones.
// Returns nil, nil if no active coupon matches.
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND is_active = true`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active coupon %s: %w", code, err)
	}
	return coupon, nil
}

// List returns coupons newest first, optionally only the active ones.
// On success, returns an empty slice (not nil) when there are no coupons.
func (r *CouponRepository) List(ctx context.Context, activeOnly bool) ([]*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// Update overwrites the mutable fields of the coupon stored under coupon.Code.
// Returns service.ErrCouponNotFound if no such coupon exists.
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	query := `UPDATE coupons SET description = $2, type = $3, value = $4, max_discount = $5,
		min_cart_value = $6, starts_at = $7, expires_at = $8, is_active = $9,
		usage_limit_total = $10, usage_limit_per_user = $11, updated_at = now()
		WHERE code = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.Code,
		coupon.Description,
		string(coupon.Type),
		coupon.Value,
		coupon.MaxDiscount,
		coupon.MinCartValue,
		coupon.StartsAt,
		coupon.ExpiresAt,
		coupon.IsActive,
		coupon.UsageLimitTotal,
		coupon.UsageLimitPerUser,
	).Scan(&coupon.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrCouponNotFound
		}
		return fmt.Errorf("update coupon %s: %w", coupon.Code, err)
	}
	return nil
}

// Deactivate clears the active flag of a coupon.
// Returns service.ErrCouponNotFound if no such coupon exists.
func (r *CouponRepository) Deactivate(ctx context.Context, code string) error {
	query := `UPDATE coupons SET is_active = false, updated_at = now() WHERE code = $1`

	tag, err := r.pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("deactivate coupon %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

func scanCoupon(row rowScanner) (*model.Coupon, error) {
	var (
		coupon       model.Coupon
		couponType   string
		maxDiscount  decimal.NullDecimal
		minCartValue decimal.NullDecimal
	)
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&couponType,
		&coupon.Value,
		&maxDiscount,
		&minCartValue,
		&coupon.StartsAt,
		&coupon.ExpiresAt,
		&coupon.IsActive,
		&coupon.IsReferralCode,
		&coupon.OwnerUserID,
		&coupon.UsageLimitTotal,
		&coupon.UsageLimitPerUser,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	coupon.Type = model.CouponType(couponType)
	coupon.MaxDiscount = nullDecimalPtr(maxDiscount)
	coupon.MinCartValue = nullDecimalPtr(minCartValue)
	return &coupon, nil
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
