package inmemory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

type orderRepository struct {
	run access
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.run(func(d *dataset) error {
		if _, exists := d.orders[order.ID]; exists {
			return errors.New("order id already used")
		}
		n := len(d.orderSeq)
		d.journal(func() {
			delete(d.orders, order.ID)
			d.orderSeq = d.orderSeq[:n]
		})
		d.orders[order.ID] = order.Clone()
		d.orderSeq = append(d.orderSeq, order.ID)
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var out *entity.Order
	err := r.run(func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	out := make([]*entity.Order, 0)
	err := r.run(func(d *dataset) error {
		// newest first: walk the insertion sequence backwards
		for i := len(d.orderSeq) - 1; i >= 0; i-- {
			o := d.orders[d.orderSeq[i]]
			if o.UserID == userID {
				out = append(out, o.Clone())
			}
		}
		return nil
	})
	return out, err
}
