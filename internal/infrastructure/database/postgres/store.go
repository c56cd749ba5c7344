// Package postgres is the Store used in production. Transactions are plain
// database/sql transactions; the open cart row is locked inside them and
// stock only moves through a conditional UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{q: s.db}
}

func (s *Store) Carts() repository.CartRepository {
	return &cartRepository{q: s.db}
}

func (s *Store) Orders() repository.OrderRepository {
	return &orderRepository{q: s.db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	repos := &txRepositories{
		products: &productRepository{q: tx},
		carts:    &cartRepository{q: tx, lock: true},
		orders:   &orderRepository{q: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositories struct {
	products *productRepository
	carts    *cartRepository
	orders   *orderRepository
}

func (t *txRepositories) Products() repository.ProductRepository { return t.products }
func (t *txRepositories) Carts() repository.CartRepository       { return t.carts }
func (t *txRepositories) Orders() repository.OrderRepository     { return t.orders }
