package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Format is the delivery format of a study-material product.
type Format string

const (
	FormatPDF      Format = "PDF"
	FormatPhysical Format = "PHYSICAL"
)

// OrderStatus values. Orders are created pending; payment state moves them on.
const (
	OrderStatusPending = "pending"
)

// Product is the authoritative price record for a sellable item.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	HasPDF      bool            `json:"has_pdf"`
	HasPhysical bool            `json:"has_physical"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"-"`
}

// Offers reports whether the product can be bought in format f.
func (p *Product) Offers(f Format) bool {
	switch f {
	case FormatPDF:
		return p.HasPDF
	case FormatPhysical:
		return p.HasPhysical
	default:
		return false
	}
}

// Order is the persisted purchase. The amount and coupon fields are a
// snapshot taken at creation and are never recomputed.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Status         string          `json:"status"`
	CouponCode     *string         `json:"coupon_code"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []OrderItem     `json:"items"`
}

// OrderItem is a single line of an order with its price snapshot.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Format    Format          `json:"format"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItemRequest is one requested cart line.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
	Format    Format `json:"format" validate:"required,oneof=PDF PHYSICAL"`
}

// CreateOrderRequest is the DTO for placing an order. Client-side totals are
// deliberately absent: amounts are always recomputed from product prices.
type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	CouponCode string             `json:"coupon_code" validate:"max=64"`
}

// Referral links a referring account to the order that redeemed its code.
type Referral struct {
	ID             string    `json:"id"`
	ReferrerUserID string    `json:"referrer_user_id"`
	ReferredUserID string    `json:"referred_user_id"`
	OrderID        string    `json:"order_id"`
	CouponCode     string    `json:"coupon_code"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notification is an in-app message for a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
