package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/discount"
)

// cartVersion is bumped whenever the saved layout changes.
const cartVersion = 1

var (
	// ErrEmptyCart is returned when checking out a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrFormatNotOffered is returned when adding a product in a format it is not sold in.
	ErrFormatNotOffered = errors.New("format not offered")
)

// CartLine is one product in the cart. UnitPrice is the listed price at the
// time the line was added and is only used for display.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Format    Format          `json:"format"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Cart is the shopper's pending selection. It holds no hidden state and
// round-trips through Save and Load.
type Cart struct {
	Version    int        `json:"version"`
	Lines      []CartLine `json:"lines"`
	CouponCode string     `json:"coupon_code,omitempty"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Version: cartVersion, Lines: []CartLine{}}
}

// LoadCart reads a cart previously written by Save.
func LoadCart(r io.Reader) (*Cart, error) {
	var cart Cart
	if err := json.NewDecoder(r).Decode(&cart); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.Version != cartVersion {
		return nil, fmt.Errorf("load cart: unsupported version %d", cart.Version)
	}
	if cart.Lines == nil {
		cart.Lines = []CartLine{}
	}
	return &cart, nil
}

// Save writes the cart as JSON.
func (c *Cart) Save(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Add puts quantity units of p in format f into the cart, merging with an
// existing line for the same product and format.
func (c *Cart) Add(p *Product, f Format, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if !p.Offers(f) {
		return fmt.Errorf("%w: %s as %s", ErrFormatNotOffered, p.Title, f)
	}

	if _, i, ok := lo.FindIndexOf(c.Lines, func(l CartLine) bool {
		return l.ProductID == p.ID && l.Format == f
	}); ok {
		c.Lines[i].Quantity += quantity
		c.Lines[i].UnitPrice = p.Price
		return nil
	}

	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Title:     p.Title,
		Format:    f,
		Quantity:  quantity,
		UnitPrice: p.Price,
	})
	return nil
}

// SetQuantity changes a line's quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(productID string, f Format, quantity int) {
	if quantity <= 0 {
		c.Remove(productID, f)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].Format == f {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// Remove drops the line for productID in format f, if any.
func (c *Cart) Remove(productID string, f Format) {
	c.Lines = lo.Reject(c.Lines, func(l CartLine, _ int) bool {
		return l.ProductID == productID && l.Format == f
	})
}

// ApplyCoupon stores the code the shopper typed, normalized.
func (c *Cart) ApplyCoupon(code string) {
	c.CouponCode = discount.NormalizeCode(code)
}

// Subtotal is the display subtotal from the listed prices.
func (c *Cart) Subtotal() decimal.Decimal {
	return lo.Reduce(c.Lines, func(sum decimal.Decimal, l CartLine, _ int) decimal.Decimal {
		return sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}, decimal.Zero)
}

// OrderRequest converts the cart into the order payload. It carries no
// prices; the server prices every line itself.
func (c *Cart) OrderRequest() *OrderRequest {
	return &OrderRequest{
		Items: lo.Map(c.Lines, func(l CartLine, _ int) OrderItemRequest {
			return OrderItemRequest{ProductID: l.ProductID, Quantity: l.Quantity, Format: l.Format}
		}),
		CouponCode: c.CouponCode,
	}
}
