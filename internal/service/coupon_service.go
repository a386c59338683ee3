package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/discount"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Coupon, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Deactivate(ctx context.Context, code string) error
}

// CouponService provides back-office operations on coupons.
type CouponService struct {
	couponRepo CouponRepositoryInterface
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(couponRepo CouponRepositoryInterface) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Create validates and stores a new coupon. The code is normalized to
// uppercase. Returns ErrCouponExists if the code is taken and
// ErrInvalidRequest (wrapped with the reason) when the rules are inconsistent.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil || req.Value == nil {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		Code:              discount.NormalizeCode(req.Code),
		Description:       req.Description,
		Type:              req.Type,
		Value:             *req.Value,
		MaxDiscount:       req.MaxDiscount,
		MinCartValue:      req.MinCartValue,
		StartsAt:          req.StartsAt,
		ExpiresAt:         req.ExpiresAt,
		IsActive:          true,
		IsReferralCode:    req.IsReferralCode,
		OwnerUserID:       req.OwnerUserID,
		UsageLimitTotal:   req.UsageLimitTotal,
		UsageLimitPerUser: req.UsageLimitPerUser,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if !coupon.IsReferralCode {
		coupon.OwnerUserID = nil
	}

	if err := checkCouponRules(coupon); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Get returns the coupon stored under code, active or not.
func (s *CouponService) Get(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, discount.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List returns all coupons, newest first.
func (s *CouponService) List(ctx context.Context, activeOnly bool) ([]*model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// Update applies the non-nil fields of req to the coupon stored under code.
// Orders already placed keep their snapshot.
func (s *CouponService) Update(ctx context.Context, code string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.Type != nil {
		coupon.Type = *req.Type
	}
	if req.Value != nil {
		coupon.Value = *req.Value
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = req.MaxDiscount
	}
	if req.MinCartValue != nil {
		coupon.MinCartValue = req.MinCartValue
	}
	if req.StartsAt != nil {
		coupon.StartsAt = req.StartsAt
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = req.ExpiresAt
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.UsageLimitTotal != nil {
		coupon.UsageLimitTotal = req.UsageLimitTotal
	}
	if req.UsageLimitPerUser != nil {
		coupon.UsageLimitPerUser = req.UsageLimitPerUser
	}
	if err := clearFields(coupon, req); err != nil {
		return nil, err
	}

	if err := checkCouponRules(coupon); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Deactivate switches a coupon off. Deactivated coupons are never redeemable.
func (s *CouponService) Deactivate(ctx context.Context, code string) error {
	return s.couponRepo.Deactivate(ctx, discount.NormalizeCode(code))
}

// clearFields resets the optional fields named in req.Clear to null. A field
// cannot be both set and cleared in one request.
func clearFields(c *model.Coupon, req *model.UpdateCouponRequest) error {
	set := map[string]bool{
		model.FieldMaxDiscount:       req.MaxDiscount != nil,
		model.FieldMinCartValue:      req.MinCartValue != nil,
		model.FieldStartsAt:          req.StartsAt != nil,
		model.FieldExpiresAt:         req.ExpiresAt != nil,
		model.FieldUsageLimitTotal:   req.UsageLimitTotal != nil,
		model.FieldUsageLimitPerUser: req.UsageLimitPerUser != nil,
	}
	for _, field := range lo.Uniq(req.Clear) {
		if set[field] {
			return fmt.Errorf("%w: %s is both set and cleared", ErrInvalidRequest, field)
		}
		switch field {
		case model.FieldMaxDiscount:
			c.MaxDiscount = nil
		case model.FieldMinCartValue:
			c.MinCartValue = nil
		case model.FieldStartsAt:
			c.StartsAt = nil
		case model.FieldExpiresAt:
			c.ExpiresAt = nil
		case model.FieldUsageLimitTotal:
			c.UsageLimitTotal = nil
		case model.FieldUsageLimitPerUser:
			c.UsageLimitPerUser = nil
		default:
			return fmt.Errorf("%w: %s cannot be cleared", ErrInvalidRequest, field)
		}
	}
	return nil
}

// checkCouponRules enforces the cross-field rules struct tags cannot express.
func checkCouponRules(c *model.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}
	if c.Type != model.CouponTypePercent && c.Type != model.CouponTypeFlat {
		return fmt.Errorf("%w: type must be PERCENT or FLAT", ErrInvalidRequest)
	}
	if !c.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrInvalidRequest)
	}
	if c.Type == model.CouponTypePercent && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percent value cannot exceed 100", ErrInvalidRequest)
	}
	if c.MaxDiscount != nil && c.MaxDiscount.IsNegative() {
		return fmt.Errorf("%w: max_discount cannot be negative", ErrInvalidRequest)
	}
	if c.MinCartValue != nil && c.MinCartValue.IsNegative() {
		return fmt.Errorf("%w: min_cart_value cannot be negative", ErrInvalidRequest)
	}
	if c.StartsAt != nil && c.ExpiresAt != nil && !c.ExpiresAt.After(*c.StartsAt) {
		return fmt.Errorf("%w: expires_at must be after starts_at", ErrInvalidRequest)
	}
	if c.IsReferralCode && (c.OwnerUserID == nil || *c.OwnerUserID == "") {
		return fmt.Errorf("%w: referral coupons need owner_user_id", ErrInvalidRequest)
	}
	return nil
}
