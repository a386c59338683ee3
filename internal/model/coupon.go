package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType is the discount strategy of a coupon.
type CouponType string

const (
	// CouponTypePercent takes Value percent off the subtotal.
	CouponTypePercent CouponType = "PERCENT"
	// CouponTypeFlat takes a fixed currency amount off the subtotal.
	CouponTypeFlat CouponType = "FLAT"
)

// Coupon represents a coupon as stored by the back office.
// Codes are always stored uppercase.
type Coupon struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	Type              CouponType       `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	MaxDiscount       *decimal.Decimal `json:"max_discount"`
	MinCartValue      *decimal.Decimal `json:"min_cart_value"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	IsActive          bool             `json:"is_active"`
	IsReferralCode    bool             `json:"is_referral_code"`
	OwnerUserID       *string          `json:"owner_user_id"`
	UsageLimitTotal   *int             `json:"usage_limit_total"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code              string           `json:"code" validate:"required,notblank,max=64"`
	Description       string           `json:"description" validate:"max=500"`
	Type              CouponType       `json:"type" validate:"required,coupontype"`
	Value             *decimal.Decimal `json:"value" validate:"required"`
	MaxDiscount       *decimal.Decimal `json:"max_discount"`
	MinCartValue      *decimal.Decimal `json:"min_cart_value"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	IsActive          *bool            `json:"is_active"`
	IsReferralCode    bool             `json:"is_referral_code"`
	OwnerUserID       *string          `json:"owner_user_id" validate:"omitempty,uuid"`
	UsageLimitTotal   *int             `json:"usage_limit_total" validate:"omitempty,gte=1"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user" validate:"omitempty,gte=1"`
}

// Optional coupon fields that an update can reset to null.
const (
	FieldMaxDiscount       = "max_discount"
	FieldMinCartValue      = "min_cart_value"
	FieldStartsAt          = "starts_at"
	FieldExpiresAt         = "expires_at"
	FieldUsageLimitTotal   = "usage_limit_total"
	FieldUsageLimitPerUser = "usage_limit_per_user"
)

// UpdateCouponRequest is the DTO for a partial coupon update.
// Nil fields are left unchanged; fields named in Clear are reset to null.
type UpdateCouponRequest struct {
	Description       *string          `json:"description" validate:"omitempty,max=500"`
	Type              *CouponType      `json:"type" validate:"omitempty,coupontype"`
	Value             *decimal.Decimal `json:"value"`
	MaxDiscount       *decimal.Decimal `json:"max_discount"`
	MinCartValue      *decimal.Decimal `json:"min_cart_value"`
	StartsAt          *time.Time       `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	IsActive          *bool            `json:"is_active"`
	UsageLimitTotal   *int             `json:"usage_limit_total" validate:"omitempty,gte=1"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user" validate:"omitempty,gte=1"`
	Clear             []string         `json:"clear" validate:"omitempty,max=6,dive,oneof=max_discount min_cart_value starts_at expires_at usage_limit_total usage_limit_per_user"`
}
