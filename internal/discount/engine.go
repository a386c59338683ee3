// Package discount decides whether a coupon is redeemable for a subtotal and
// what it takes off. The same code backs the public quote callable and the
// authoritative re-check performed when an order is placed.
package discount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// CurrencySymbol prefixes amounts in customer-facing messages.
const CurrencySymbol = "₹"

// Customer-facing coupon messages.
const (
	MsgInvalidCode   = "Invalid coupon code"
	MsgExpired       = "Coupon has expired"
	MsgNotYetActive  = "Coupon is not yet active"
	MsgLookupFailure = "Error validating coupon"
)

var hundred = decimal.NewFromInt(100)

// CouponFinder looks up an active coupon by its normalized code.
// It returns nil, nil when no active coupon has that code.
type CouponFinder interface {
	FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// Engine quotes coupons against subtotals.
type Engine struct {
	coupons CouponFinder
	now     func() time.Time
}

// NewEngine creates an Engine that reads coupons from finder.
func NewEngine(finder CouponFinder) *Engine {
	return &Engine{coupons: finder, now: time.Now}
}

// NewEngineWithClock creates an Engine with a custom clock.
// Primarily used for testing.
func NewEngineWithClock(finder CouponFinder, now func() time.Time) *Engine {
	return &Engine{coupons: finder, now: now}
}

// NormalizeCode trims surrounding whitespace and uppercases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Quote looks up code and evaluates it against subtotal.
//
// Quote never fails: rejections come back as an invalid Quote with a message,
// and a failed lookup degrades to an invalid Quote carrying MsgLookupFailure so
// checkout can continue without the discount.
func (e *Engine) Quote(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
	code = NormalizeCode(code)
	if code == "" {
		return noCoupon(subtotal)
	}

	coupon, err := e.coupons.FindActiveByCode(ctx, code)
	if err != nil {
		log.Error().
			Err(err).
			Str("coupon_code", code).
			Str("subtotal", subtotal.String()).
			Msg("coupon lookup failed, quoting without discount")
		return rejected(subtotal, MsgLookupFailure)
	}

	return Evaluate(coupon, subtotal, e.now())
}

// Evaluate applies coupon to subtotal at time now. A nil or inactive coupon is
// treated as unknown. Checks run in a fixed order and the first failure wins.
func Evaluate(coupon *model.Coupon, subtotal decimal.Decimal, now time.Time) *model.Quote {
	if coupon == nil || !coupon.IsActive {
		return rejected(subtotal, MsgInvalidCode)
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now) {
		return rejected(subtotal, MsgExpired)
	}
	if coupon.StartsAt != nil && coupon.StartsAt.After(now) {
		return rejected(subtotal, MsgNotYetActive)
	}
	if coupon.MinCartValue != nil && subtotal.LessThan(*coupon.MinCartValue) {
		return rejected(subtotal, MinCartMessage(*coupon.MinCartValue))
	}

	discount := Amount(coupon, subtotal)

	q := &model.Quote{
		Subtotal:      subtotal,
		Discount:      discount,
		FinalAmount:   subtotal.Sub(discount),
		CouponCode:    coupon.Code,
		CouponValid:   true,
		CouponMessage: AppliedMessage(discount),
		ItemsValid:    true,
	}
	if coupon.IsReferralCode && coupon.OwnerUserID != nil {
		q.IsReferralCode = true
		q.ReferrerUserID = *coupon.OwnerUserID
	}
	return q
}

// Amount computes the discount coupon grants on subtotal, ignoring its
// activation window and minimum. The result is rounded to the currency's
// minor unit and always lies within [0, subtotal].
func Amount(coupon *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch coupon.Type {
	case model.CouponTypePercent:
		d = subtotal.Mul(coupon.Value).Div(hundred)
		if coupon.MaxDiscount != nil && d.GreaterThan(*coupon.MaxDiscount) {
			d = *coupon.MaxDiscount
		}
	case model.CouponTypeFlat:
		d = coupon.Value
	}

	d = d.Round(2)
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}

// MinCartMessage is the rejection shown when the subtotal is below min.
func MinCartMessage(min decimal.Decimal) string {
	return fmt.Sprintf("Minimum cart value of %s%s required", CurrencySymbol, min.String())
}

// AppliedMessage is the confirmation shown when a coupon takes off discount.
func AppliedMessage(discount decimal.Decimal) string {
	return fmt.Sprintf("Coupon applied! You save %s%s", CurrencySymbol, discount.String())
}

func noCoupon(subtotal decimal.Decimal) *model.Quote {
	return &model.Quote{
		Subtotal:    subtotal,
		Discount:    decimal.Zero,
		FinalAmount: subtotal,
		ItemsValid:  true,
	}
}

func rejected(subtotal decimal.Decimal, msg string) *model.Quote {
	q := noCoupon(subtotal)
	q.CouponMessage = msg
	return q
}
