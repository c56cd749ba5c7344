package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
)

// CartUsecase manages the caller's OPEN cart.
type CartUsecase interface {
	GetOrCreateOpenCart(ctx context.Context, userID int) (*entity.Cart, error)
	AddLine(ctx context.Context, userID, productID, quantity int) (*CartView, error)
	RemoveLine(ctx context.Context, userID, productID int) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID, quantity int) (*CartView, error)
	View(ctx context.Context, userID int) (*CartView, error)
	Cancel(ctx context.Context, userID int) error
}

// CheckoutUsecase turns the caller's OPEN cart into an order.
type CheckoutUsecase interface {
	Finalize(ctx context.Context, userID int, input FinalizeInput) (*entity.Order, error)
	Cancel(ctx context.Context, userID int) error
}

// OrderUsecase reads the caller's past orders.
type OrderUsecase interface {
	List(ctx context.Context, userID int) ([]*entity.Order, error)
	Get(ctx context.Context, userID int, orderID uuid.UUID) (*entity.Order, error)
}

// ProductUsecase exposes the catalog read side.
type ProductUsecase interface {
	List(ctx context.Context) ([]*entity.Product, error)
	Get(ctx context.Context, id int) (*entity.Product, error)
}

// FinalizeInput carries what checkout needs besides the cart.
type FinalizeInput struct {
	ShippingAddress  string
	PaymentReference string
}
