package storefront

import "github.com/fairyhunter13/studymart-checkout/internal/model"

// Wire types returned by Client, usable from outside this module.
type (
	Quote            = model.QuoteResponse
	Product          = model.Product
	Format           = model.Format
	Order            = model.Order
	OrderItem        = model.OrderItem
	OrderRequest     = model.CreateOrderRequest
	OrderItemRequest = model.OrderItemRequest
)

// Product formats.
const (
	FormatPDF      = model.FormatPDF
	FormatPhysical = model.FormatPhysical
)
