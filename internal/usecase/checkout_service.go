package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
)

// CheckoutService implements CheckoutUsecase.
type CheckoutService struct {
	store   repository.Store
	pricing *pricing.Engine
	carts   *CartService
	log     zerolog.Logger
	now     func() time.Time
}

func NewCheckoutService(store repository.Store, engine *pricing.Engine, carts *CartService, log zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		store:   store,
		pricing: engine,
		carts:   carts,
		log:     log.With().Str("component", "checkout").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Finalize converts the user's OPEN cart into an order. The order insert,
// every stock decrement, the FINALIZED transition and the line cleanup
// commit together or not at all.
func (s *CheckoutService) Finalize(ctx context.Context, userID int, input FinalizeInput) (*entity.Order, error) {
	var order *entity.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		c, err := tx.Carts().FindOpenByUser(ctx, userID)
		if err != nil {
			return noActiveCartOr(err)
		}
		if len(c.Lines) == 0 {
			return apperr.ErrEmptyCart
		}
		address, err := validateAddress(input.ShippingAddress)
		if err != nil {
			return err
		}
		last4, err := paymentLast4(input.PaymentReference)
		if err != nil {
			return err
		}

		lines, err := s.snapshot(ctx, tx, c)
		if err != nil {
			return err
		}
		priced := make([]pricing.Line, len(lines))
		for i, l := range lines {
			priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity, Category: l.Category}
		}
		totals := s.pricing.Compute(priced)

		now := s.now()
		o := &entity.Order{
			ID:              uuid.New(),
			UserID:          userID,
			CartID:          c.ID,
			CreatedAt:       now,
			ShippingAddress: address,
			PaymentLast4:    last4,
			Subtotal:        totals.Subtotal,
			TaxTotal:        totals.TaxTotal,
			ShippingFee:     totals.ShippingFee,
			GrandTotal:      totals.GrandTotal,
			Lines:           lines,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		// one global row-lock order, so two checkouts sharing products
		// queue behind each other instead of deadlocking
		byProduct := slices.Clone(lines)
		slices.SortFunc(byProduct, func(a, b entity.OrderLine) int { return cmp.Compare(a.ProductID, b.ProductID) })
		for _, l := range byProduct {
			if err := s.decrement(ctx, tx, l); err != nil {
				return err
			}
		}
		if !c.CanTransitionTo(entity.CartFinalized) {
			return apperr.InvalidState("cart is %s", c.State)
		}
		if err := tx.Carts().ClearLines(ctx, c.ID); err != nil {
			return fmt.Errorf("clear cart lines: %w", err)
		}
		if err := tx.Carts().UpdateState(ctx, c.ID, entity.CartFinalized, now); err != nil {
			return fmt.Errorf("finalize cart: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		s.logRejected(userID, err)
		return nil, err
	}

	s.carts.Invalidate(ctx, userID)
	s.log.Info().
		Str("order_id", order.ID.String()).
		Int("user_id", userID).
		Str("grand_total", order.GrandTotal.StringFixed(2)).
		Msg("order finalized")
	return order, nil
}

func (s *CheckoutService) Cancel(ctx context.Context, userID int) error {
	return s.carts.Cancel(ctx, userID)
}

// snapshot copies name, price and category of every line's product as they
// are right now, and re-checks stock.
func (s *CheckoutService) snapshot(ctx context.Context, tx repository.Repositories, c *entity.Cart) ([]entity.OrderLine, error) {
	ids := make([]int, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := tx.Products().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[int]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]entity.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, apperr.NotFound("product %d not found", l.ProductID)
		}
		if l.Quantity > p.Stock {
			return nil, apperr.InsufficientStock(p.ID, p.Name, l.Quantity, p.Stock)
		}
		lines = append(lines, entity.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Category:    p.Category,
			Quantity:    l.Quantity,
		})
	}
	return lines, nil
}

// decrement loses the race cleanly: a concurrent checkout that took the
// stock first surfaces as InsufficientStock, not as an internal error.
func (s *CheckoutService) decrement(ctx context.Context, tx repository.Repositories, l entity.OrderLine) error {
	err := tx.Products().DecrementStock(ctx, l.ProductID, l.Quantity)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientStock):
		available := 0
		if p, err := tx.Products().GetByID(ctx, l.ProductID); err == nil {
			available = p.Stock
		}
		return apperr.InsufficientStock(l.ProductID, l.ProductName, l.Quantity, available)
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("product %d not found", l.ProductID)
	default:
		return fmt.Errorf("decrement stock of product %d: %w", l.ProductID, err)
	}
}

func (s *CheckoutService) logRejected(userID int, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		s.log.Error().Err(err).Int("user_id", userID).Msg("checkout failed")
		return
	}
	s.log.Warn().Err(err).Int("user_id", userID).Str("reason", kind.String()).Msg("checkout rejected")
}
