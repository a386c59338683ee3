package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/discount"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/pkg/database"
)

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	GetActiveByIDs(ctx context.Context, ids []string) ([]*model.Product, error)
	ListActive(ctx context.Context) ([]*model.Product, error)
}

// OrderRepositoryInterface defines the interface for order data access.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, order *model.Order) error
	InsertItems(ctx context.Context, tx database.TxQuerier, items []model.OrderItem) error
	GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Order, error)
}

// ReferralRepositoryInterface defines the interface for referral bookkeeping.
type ReferralRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, referral *model.Referral) error
}

// NotificationRepositoryInterface defines the interface for user notifications.
type NotificationRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, n *model.Notification) error
}

// Quoter prices a coupon against a subtotal.
type Quoter interface {
	Quote(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderService assembles and persists orders.
type OrderService struct {
	pool             TxBeginner
	quoter           Quoter
	productRepo      ProductRepositoryInterface
	orderRepo        OrderRepositoryInterface
	referralRepo     ReferralRepositoryInterface
	notificationRepo NotificationRepositoryInterface
	now              func() time.Time
}

// OrderRepos groups the repositories an OrderService writes through.
type OrderRepos struct {
	Products      ProductRepositoryInterface
	Orders        OrderRepositoryInterface
	Referrals     ReferralRepositoryInterface
	Notifications NotificationRepositoryInterface
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool *pgxpool.Pool, quoter Quoter, repos OrderRepos) *OrderService {
	return NewOrderServiceWithTxBeginner(pool, quoter, repos)
}

// NewOrderServiceWithTxBeginner creates an OrderService with a custom TxBeginner.
// Primarily used for testing.
func NewOrderServiceWithTxBeginner(pool TxBeginner, quoter Quoter, repos OrderRepos) *OrderService {
	return &OrderService{
		pool:             pool,
		quoter:           quoter,
		productRepo:      repos.Products,
		orderRepo:        repos.Orders,
		referralRepo:     repos.Referrals,
		notificationRepo: repos.Notifications,
		now:              time.Now,
	}
}

// PlaceOrder prices req from the authoritative product list, re-runs the
// coupon check and persists the order with its items, referral record and
// notification in a single transaction.
// Returns:
//   - ErrInvalidRequest if there is no user or no items
//   - ErrProductNotFound if any product is unknown or not for sale
//   - ErrFormatUnavailable if a product is not sold in the requested format
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
	if req == nil || userID == "" || len(req.Items) == 0 {
		return nil, ErrInvalidRequest
	}

	// 1. Authoritative prices
	ids := lo.Uniq(lo.Map(req.Items, func(it model.OrderItemRequest, _ int) string { return it.ProductID }))
	products, err := s.productRepo.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID := lo.KeyBy(products, func(p *model.Product) string { return p.ID })

	orderID := uuid.NewString()
	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, it := range req.Items {
		product, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if !product.Offers(it.Format) {
			return nil, fmt.Errorf("%w: %s as %s", ErrFormatUnavailable, it.ProductID, it.Format)
		}
		item := model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: product.ID,
			Title:     product.Title,
			Format:    it.Format,
			Quantity:  it.Quantity,
			UnitPrice: product.Price,
		}
		subtotal = subtotal.Add(item.LineTotal())
		items = append(items, item)
	}

	// 2. Authoritative coupon check; the client's quote is never trusted
	quote := s.quoter.Quote(ctx, req.CouponCode, subtotal)

	order := &model.Order{
		ID:             orderID,
		UserID:         userID,
		Status:         model.OrderStatusPending,
		TotalAmount:    quote.Subtotal,
		DiscountAmount: quote.Discount,
		FinalAmount:    quote.FinalAmount,
		CreatedAt:      s.now().UTC(),
		Items:          items,
	}
	if quote.CouponValid {
		order.CouponCode = &quote.CouponCode
	}

	// 3. Persist everything or nothing
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.orderRepo.Insert(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	if err := s.orderRepo.InsertItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}

	if referral := referralFor(quote, order); referral != nil {
		if err := s.referralRepo.Insert(ctx, tx, referral); err != nil {
			return nil, fmt.Errorf("insert referral: %w", err)
		}
	} else if quote.IsReferralCode {
		log.Info().
			Str("order_id", order.ID).
			Str("user_id", userID).
			Msg("referral code redeemed by its owner, no referral recorded")
	}

	if err := s.notificationRepo.Insert(ctx, tx, orderPlacedNotification(order)); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

// GetOrder returns one of the user's orders.
// Returns ErrOrderNotFound if it does not exist or belongs to someone else.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	// Order ids are UUIDs; anything else cannot match a row.
	if uuid.Validate(orderID) != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListProducts returns the products currently for sale.
func (s *OrderService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// referralFor returns the referral record an order earns, or nil. Owners
// redeeming their own code still get the discount but refer nobody.
func referralFor(q *model.Quote, order *model.Order) *model.Referral {
	if !q.CouponValid || !q.IsReferralCode || q.ReferrerUserID == "" {
		return nil
	}
	if q.ReferrerUserID == order.UserID {
		return nil
	}
	return &model.Referral{
		ID:             uuid.NewString(),
		ReferrerUserID: q.ReferrerUserID,
		ReferredUserID: order.UserID,
		OrderID:        order.ID,
		CouponCode:     q.CouponCode,
		CreatedAt:      order.CreatedAt,
	}
}

func orderPlacedNotification(order *model.Order) *model.Notification {
	msg := fmt.Sprintf("Your order %s for %s%s has been placed.",
		shortID(order.ID), discount.CurrencySymbol, order.FinalAmount.StringFixed(2))
	if order.CouponCode != nil {
		msg += fmt.Sprintf(" Coupon %s saved you %s%s.",
			*order.CouponCode, discount.CurrencySymbol, order.DiscountAmount.StringFixed(2))
	}
	return &model.Notification{
		ID:        uuid.NewString(),
		UserID:    order.UserID,
		Title:     "Order placed",
		Message:   msg,
		CreatedAt: order.CreatedAt,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + id
}
