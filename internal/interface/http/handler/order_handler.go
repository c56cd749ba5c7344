package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/middleware"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/presenter"
	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

// OrderHandler serves the caller's order history.
type OrderHandler struct {
	orders    usecase.OrderUsecase
	presenter *presenter.OrderPresenter
	log       zerolog.Logger
}

func NewOrderHandler(orders usecase.OrderUsecase, presenter *presenter.OrderPresenter, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, presenter: presenter, log: log}
}

func (h *OrderHandler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/v1/orders", h.list)
	r.Get("/api/v1/orders/:id", h.get)
}

func (h *OrderHandler) list(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	orders, err := h.orders.List(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.presenter.ToList(orders))
}

func (h *OrderHandler) get(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid order id")
	}
	order, err := h.orders.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.presenter.ToResponse(order))
}
