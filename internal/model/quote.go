package model

import "github.com/shopspring/decimal"

// Quote is the outcome of running a coupon against a subtotal.
// It is computed fresh on every request and never stored.
type Quote struct {
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	FinalAmount    decimal.Decimal
	CouponCode     string // normalized code, set only when the coupon was applied
	CouponValid    bool
	CouponMessage  string
	ItemsValid     bool
	IsReferralCode bool
	ReferrerUserID string
}

// QuoteRequest is the body accepted by the coupon validation callable.
type QuoteRequest struct {
	CouponCode string   `json:"couponCode" validate:"max=64"`
	Subtotal   *float64 `json:"subtotal" validate:"required,gte=0"`
}

// QuoteResponse is the wire form of a Quote. Amounts are JSON numbers.
type QuoteResponse struct {
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	FinalAmount    float64 `json:"final_amount"`
	CouponValid    bool    `json:"coupon_valid"`
	CouponMessage  string  `json:"coupon_message,omitempty"`
	ItemsValid     bool    `json:"items_valid"`
	IsReferralCode bool    `json:"is_referral_code,omitempty"`
	ReferrerUserID string  `json:"referrer_user_id,omitempty"`
}

// QuoteErrorResponse is returned by the callable when the request cannot be
// quoted at all.
type QuoteErrorResponse struct {
	Error       string  `json:"error"`
	CouponValid bool    `json:"coupon_valid"`
	Discount    float64 `json:"discount"`
}

// ToResponse converts q into its wire form.
func (q *Quote) ToResponse() QuoteResponse {
	return QuoteResponse{
		Subtotal:       q.Subtotal.InexactFloat64(),
		Discount:       q.Discount.InexactFloat64(),
		FinalAmount:    q.FinalAmount.InexactFloat64(),
		CouponValid:    q.CouponValid,
		CouponMessage:  q.CouponMessage,
		ItemsValid:     q.ItemsValid,
		IsReferralCode: q.IsReferralCode,
		ReferrerUserID: q.ReferrerUserID,
	}
}
