package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

type productRepository struct {
	run access
}

func (r *productRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	var out *entity.Product
	err := r.run(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (r *productRepository) ListByIDs(ctx context.Context, ids []int) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(ids))
	err := r.run(func(d *dataset) error {
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := d.products[id]; ok {
				cp := *p
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *productRepository) List(ctx context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.run(func(d *dataset) error {
		out = make([]*entity.Product, 0, len(d.products))
		for _, p := range d.products {
			cp := *p
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *productRepository) DecrementStock(ctx context.Context, id int, amount int) error {
	return r.run(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		if amount <= 0 || p.Stock < amount {
			return repository.ErrInsufficientStock
		}
		d.touchProduct(p)
		p.Stock -= amount
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}
