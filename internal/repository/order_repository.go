package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
	"github.com/fairyhunter13/studymart-checkout/pkg/database"
)

const orderColumns = `id, user_id, status, coupon_code, total_amount, discount_amount, final_amount, created_at`

// OrderRepository provides data access for orders and their items.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates a new OrderRepository with a custom pool interface.
// This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert inserts the order header within a transaction.
func (r *OrderRepository) Insert(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
	query := `INSERT INTO orders (id, user_id, status, coupon_code, total_amount, discount_amount, final_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.CouponCode,
		order.TotalAmount,
		order.DiscountAmount,
		order.FinalAmount,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

// InsertItems inserts the order lines within a transaction.
func (r *OrderRepository) InsertItems(ctx context.Context, tx database.TxQuerier, items []model.OrderItem) error {
	query := `INSERT INTO order_items (id, order_id, product_id, title, format, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, it := range items {
		_, err := tx.Exec(ctx, query,
			it.ID,
			it.OrderID,
			it.ProductID,
			it.Title,
			string(it.Format),
			it.Quantity,
			it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ProductID, err)
		}
	}
	return nil
}

// GetForUser retrieves an order with its items, scoped to its owner.
// Returns service.ErrOrderNotFound if it does not exist or belongs to another user.
func (r *OrderRepository) GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	if err := r.attachItems(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListForUser returns the user's orders with their items, newest first.
// On success, returns an empty slice (not nil) when the user has no orders.
func (r *OrderRepository) ListForUser(ctx context.Context, userID string) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all orders with one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := lo.KeyBy(orders, func(o *model.Order) string { return o.ID })
	ids := lo.Keys(byID)

	query := `SELECT id, order_id, product_id, title, format, quantity, unit_price
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for _, o := range orders {
		o.Items = []model.OrderItem{}
	}
	for rows.Next() {
		var (
			it     model.OrderItem
			format string
		)
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.Title,
			&format,
			&it.Quantity,
			&it.UnitPrice,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		it.Format = model.Format(format)
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.CouponCode,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.FinalAmount,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
