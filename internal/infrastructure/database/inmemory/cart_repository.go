package inmemory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

type cartRepository struct {
	run access
}

func (r *cartRepository) FindOpenByUser(ctx context.Context, userID int) (*entity.Cart, error) {
	var out *entity.Cart
	err := r.run(func(d *dataset) error {
		id, ok := d.openCarts[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = d.carts[id].Clone()
		return nil
	})
	return out, err
}

func (r *cartRepository) GetOrCreateOpen(ctx context.Context, userID int, now time.Time) (*entity.Cart, error) {
	var out *entity.Cart
	err := r.run(func(d *dataset) error {
		if id, ok := d.openCarts[userID]; ok {
			out = d.carts[id].Clone()
			return nil
		}
		c := entity.NewCart(userID, now)
		d.journal(func() {
			delete(d.carts, c.ID)
			delete(d.openCarts, userID)
		})
		d.carts[c.ID] = c
		d.openCarts[userID] = c.ID
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r *cartRepository) SaveLine(ctx context.Context, cartID uuid.UUID, line entity.CartLine) error {
	return r.run(func(d *dataset) error {
		c, ok := d.carts[cartID]
		if !ok {
			return repository.ErrNotFound
		}
		d.touchCart(c)
		c.SetQuantity(line.ProductID, line.Quantity, line.AddedAt)
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID int) error {
	return r.run(func(d *dataset) error {
		c, ok := d.carts[cartID]
		if !ok {
			return repository.ErrNotFound
		}
		if _, ok := c.Line(productID); !ok {
			return repository.ErrNotFound
		}
		d.touchCart(c)
		c.SetQuantity(productID, 0, time.Time{})
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.run(func(d *dataset) error {
		c, ok := d.carts[cartID]
		if !ok {
			return repository.ErrNotFound
		}
		d.touchCart(c)
		c.Lines = []entity.CartLine{}
		return nil
	})
}

func (r *cartRepository) UpdateState(ctx context.Context, cartID uuid.UUID, state entity.CartState, now time.Time) error {
	return r.run(func(d *dataset) error {
		c, ok := d.carts[cartID]
		if !ok {
			return repository.ErrNotFound
		}
		d.touchCart(c)
		c.State = state
		c.UpdatedAt = now
		if state == entity.CartOpen {
			d.openCarts[c.UserID] = c.ID
		} else if d.openCarts[c.UserID] == c.ID {
			delete(d.openCarts, c.UserID)
		}
		return nil
	})
}
