package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository is the catalog contract consumed by the cart and the
// checkout.
type ProductRepository interface {
	GetByID(ctx context.Context, id int) (*entity.Product, error)
	// ListByIDs skips ids that do not exist; order follows the catalog.
	ListByIDs(ctx context.Context, ids []int) ([]*entity.Product, error)
	List(ctx context.Context) ([]*entity.Product, error)
	// DecrementStock subtracts amount only when at least amount is left.
	// It returns ErrInsufficientStock otherwise and never drives stock below
	// zero, whatever else runs concurrently.
	DecrementStock(ctx context.Context, id int, amount int) error
}

// CartRepository persists carts and their lines.
type CartRepository interface {
	// FindOpenByUser returns ErrNotFound when the user has no OPEN cart.
	// Inside a transaction the cart is locked until commit.
	FindOpenByUser(ctx context.Context, userID int) (*entity.Cart, error)
	GetOrCreateOpen(ctx context.Context, userID int, now time.Time) (*entity.Cart, error)
	SaveLine(ctx context.Context, cartID uuid.UUID, line entity.CartLine) error
	// DeleteLine returns ErrNotFound when the line does not exist.
	DeleteLine(ctx context.Context, cartID uuid.UUID, productID int) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	UpdateState(ctx context.Context, cartID uuid.UUID, state entity.CartState, now time.Time) error
}

// OrderRepository persists immutable orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID int) ([]*entity.Order, error)
}

// Repositories groups the repositories of one store or one transaction.
type Repositories interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
}

// Store is a Repositories whose writes can be grouped into one transaction.
// WithinTx commits when fn returns nil and discards every effect otherwise.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
