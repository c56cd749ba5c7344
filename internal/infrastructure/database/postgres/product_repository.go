package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

const (
	productColumns = `product_id, product_name, category, product_price, stock, created_at, updated_at`

	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE product_id = $1
	`
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM product
		ORDER BY product_id
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE product_id = ANY($1::int[])
		ORDER BY product_id
	`
	// the stock >= $1 guard makes check-and-decrement a single atomic step
	decrementStockQuery = `
		UPDATE product
		SET stock = stock - $1,
			updated_at = NOW()
		WHERE product_id = $2 AND stock >= $1
	`
	productExistsQuery = `SELECT EXISTS(SELECT 1 FROM product WHERE product_id = $1)`
)

type productRepository struct {
	q querier
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product %d: %w", id, err)
	}
	return p, nil
}

func (r *productRepository) ListByIDs(ctx context.Context, ids []int) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return []*entity.Product{}, nil
	}
	return r.list(ctx, listProductsByIDsQuery, pq.Array(ids))
}

func (r *productRepository) List(ctx context.Context) ([]*entity.Product, error) {
	return r.list(ctx, listProductsQuery)
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product rows: %w", err)
	}
	return out, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id int, amount int) error {
	if amount <= 0 {
		return repository.ErrInsufficientStock
	}
	res, err := r.q.ExecContext(ctx, decrementStockQuery, amount, id)
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, productExistsQuery, id).Scan(&exists); err != nil {
		return fmt.Errorf("check product %d: %w", id, err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrInsufficientStock
}
