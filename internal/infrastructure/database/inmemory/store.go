// Package inmemory is a process-local Store. It backs local runs without a
// database and the use-case tests.
package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

type dataset struct {
	products  map[int]*entity.Product
	carts     map[uuid.UUID]*entity.Cart
	openCarts map[int]uuid.UUID // userID -> OPEN cart
	orders    map[uuid.UUID]*entity.Order
	orderSeq  []uuid.UUID

	// undo is non-nil while a transaction runs. Writers push the inverse of
	// each change before making it.
	undo []func()
}

func newDataset() *dataset {
	return &dataset{
		products:  make(map[int]*entity.Product),
		carts:     make(map[uuid.UUID]*entity.Cart),
		openCarts: make(map[int]uuid.UUID),
		orders:    make(map[uuid.UUID]*entity.Order),
	}
}

func (d *dataset) journal(undo func()) {
	if d.undo != nil {
		d.undo = append(d.undo, undo)
	}
}

// touchProduct records p's current values so a rollback can restore them.
func (d *dataset) touchProduct(p *entity.Product) {
	old := *p
	d.journal(func() { *p = old })
}

// touchCart records c and its user's open-cart pointer.
func (d *dataset) touchCart(c *entity.Cart) {
	if d.undo == nil {
		return
	}
	old := c.Clone()
	openID, hadOpen := d.openCarts[c.UserID]
	d.journal(func() {
		d.carts[old.ID] = old
		if hadOpen {
			d.openCarts[old.UserID] = openID
		} else {
			delete(d.openCarts, old.UserID)
		}
	})
}

func (d *dataset) rollback() {
	for i := len(d.undo) - 1; i >= 0; i-- {
		d.undo[i]()
	}
}

// access runs fn against the dataset a repository is bound to.
type access func(fn func(d *dataset) error) error

// Store serializes every transaction behind one mutex. Changes made inside a
// transaction are journaled and undone unless it succeeds, so its cost
// follows what it touches, not how much history the store holds.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

var _ repository.Store = (*Store)(nil)

// NewStore returns a store holding the given catalog.
func NewStore(products []entity.Product) *Store {
	d := newDataset()
	for _, p := range products {
		pc := p
		d.products[p.ID] = &pc
	}
	return &Store{data: d}
}

// PutProduct inserts or replaces a catalog entry. Restocking and repricing
// are not checkout operations; this is how they reach the in-memory catalog.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = &p
}

func (s *Store) locked(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{run: s.locked}
}

func (s *Store) Carts() repository.CartRepository {
	return &cartRepository{run: s.locked}
}

func (s *Store) Orders() repository.OrderRepository {
	return &orderRepository{run: s.locked}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	d := s.data
	d.undo = make([]func(), 0, 8)
	committed := false
	defer func() {
		if !committed {
			d.rollback()
		}
		d.undo = nil
	}()

	run := func(f func(d *dataset) error) error { return f(d) }
	tx := &txRepositories{
		products: &productRepository{run: run},
		carts:    &cartRepository{run: run},
		orders:   &orderRepository{run: run},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	committed = true
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
