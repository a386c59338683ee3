package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/pkg/database"
)

// ReferralRepository provides data access for referral records.
type ReferralRepository struct {
	pool PoolInterface
}

// NewReferralRepository creates a new ReferralRepository with the given pool.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// NewReferralRepositoryWithPool creates a new ReferralRepository with a custom pool interface.
// This is primarily used for testing.
func NewReferralRepositoryWithPool(pool PoolInterface) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// Insert records a referral within a transaction.
func (r *ReferralRepository) Insert(ctx context.Context, tx database.TxQuerier, referral *model.Referral) error {
	query := `INSERT INTO referrals (id, referrer_user_id, referred_user_id, order_id, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		referral.ID,
		referral.ReferrerUserID,
		referral.ReferredUserID,
		referral.OrderID,
		referral.CouponCode,
		referral.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// ListByReferrer returns the referrals credited to a user, newest first.
// On success, returns an empty slice (not nil) when there are none.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, userID string) ([]*model.Referral, error) {
	query := `SELECT id, referrer_user_id, referred_user_id, order_id, coupon_code, created_at
		FROM referrals WHERE referrer_user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals for %s: %w", userID, err)
	}
	defer rows.Close()

	referrals := []*model.Referral{}
	for rows.Next() {
		var ref model.Referral
		if err := rows.Scan(
			&ref.ID,
			&ref.ReferrerUserID,
			&ref.ReferredUserID,
			&ref.OrderID,
			&ref.CouponCode,
			&ref.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		referrals = append(referrals, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referral rows: %w", err)
	}
	return referrals, nil
}
