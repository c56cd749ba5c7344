package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

const (
	findOpenCartQuery = `
		SELECT cart_id, user_id, state, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND state = 'OPEN'
	`
	cartLinesQuery = `
		SELECT product_id, quantity, added_at
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY added_at, product_id
	`
	insertOpenCartQuery = `
		INSERT INTO carts (cart_id, user_id, state, created_at, updated_at)
		VALUES ($1, $2, 'OPEN', $3, $3)
		ON CONFLICT (user_id) WHERE state = 'OPEN' DO NOTHING
	`
	upsertCartLineQuery = `
		INSERT INTO cart_lines (cart_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	deleteCartLineQuery  = `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`
	clearCartLinesQuery  = `DELETE FROM cart_lines WHERE cart_id = $1`
	updateCartStateQuery = `UPDATE carts SET state = $1, updated_at = $2 WHERE cart_id = $3`
)

type cartRepository struct {
	q querier
	// lock adds FOR UPDATE to the open cart lookup; only set inside a tx
	lock bool
}

func (r *cartRepository) FindOpenByUser(ctx context.Context, userID int) (*entity.Cart, error) {
	query := findOpenCartQuery
	if r.lock {
		query += " FOR UPDATE"
	}

	var c entity.Cart
	var state string
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &state, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query open cart of user %d: %w", userID, err)
	}
	c.State = entity.CartState(state)

	lines, err := r.lines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines
	return &c, nil
}

func (r *cartRepository) lines(ctx context.Context, cartID uuid.UUID) ([]entity.CartLine, error) {
	rows, err := r.q.QueryContext(ctx, cartLinesQuery, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	out := make([]entity.CartLine, 0)
	for rows.Next() {
		var l entity.CartLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart line rows: %w", err)
	}
	return out, nil
}

// GetOrCreateOpen leans on the partial unique index: a concurrent insert for
// the same user is dropped and both callers read back the same cart.
func (r *cartRepository) GetOrCreateOpen(ctx context.Context, userID int, now time.Time) (*entity.Cart, error) {
	if _, err := r.q.ExecContext(ctx, insertOpenCartQuery, uuid.New(), userID, now); err != nil {
		return nil, fmt.Errorf("insert open cart for user %d: %w", userID, err)
	}
	return r.FindOpenByUser(ctx, userID)
}

func (r *cartRepository) SaveLine(ctx context.Context, cartID uuid.UUID, line entity.CartLine) error {
	if _, err := r.q.ExecContext(ctx, upsertCartLineQuery, cartID, line.ProductID, line.Quantity, line.AddedAt); err != nil {
		return fmt.Errorf("save cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID int) error {
	return r.execOne(ctx, "delete cart line", deleteCartLineQuery, cartID, productID)
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, clearCartLinesQuery, cartID); err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateState(ctx context.Context, cartID uuid.UUID, state entity.CartState, now time.Time) error {
	return r.execOne(ctx, "update cart state", updateCartStateQuery, string(state), now, cartID)
}

// execOne runs a statement that must touch exactly one row.
func (r *cartRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
