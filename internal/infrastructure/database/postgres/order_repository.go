package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

const (
	orderColumns = `order_id, user_id, cart_id, created_at, shipping_address, payment_last4,
		subtotal, tax_total, shipping_fee, grand_total`

	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	insertOrderLineQuery = `
		INSERT INTO order_lines (order_id, line_no, product_id, product_name, unit_price, category, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_id = $1
	`
	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, order_id
	`
	orderLinesQuery = `
		SELECT order_id, product_id, product_name, unit_price, category, quantity
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line_no
	`
)

type orderRepository struct {
	q querier
}

// Create writes the header and its lines. Callers run it inside WithinTx so
// a partial order is never visible.
func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.ExecContext(ctx, insertOrderQuery,
		o.ID, o.UserID, o.CartID, o.CreatedAt, o.ShippingAddress, o.PaymentLast4,
		o.Subtotal, o.TaxTotal, o.ShippingFee, o.GrandTotal,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i, l := range o.Lines {
		_, err := r.q.ExecContext(ctx, insertOrderLineQuery,
			o.ID, i+1, l.ProductID, l.ProductName, l.UnitPrice, l.Category, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line %d: %w", i+1, err)
		}
	}
	return nil
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.CreatedAt, &o.ShippingAddress, &o.PaymentLast4,
		&o.Subtotal, &o.TaxTotal, &o.ShippingFee, &o.GrandTotal)
	if err != nil {
		return nil, err
	}
	o.Lines = []entity.OrderLine{}
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, getOrderByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order %s: %w", id, err)
	}
	if err := r.attachLines(ctx, []*entity.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	rows, err := r.q.QueryContext(ctx, listOrdersByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order rows: %w", err)
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachLines loads the lines of every order in one query.
func (r *orderRepository) attachLines(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*entity.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := r.q.QueryContext(ctx, orderLinesQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var l entity.OrderLine
		if err := rows.Scan(&orderID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Category, &l.Quantity); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}
