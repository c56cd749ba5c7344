package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

// OrderService implements OrderUsecase. Callers only ever see their own
// orders; asking for someone else's is Forbidden.
type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

func (s *OrderService) List(ctx context.Context, userID int) ([]*entity.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *OrderService) Get(ctx context.Context, userID int, orderID uuid.UUID) (*entity.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", orderID)
	}
	if o.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}
