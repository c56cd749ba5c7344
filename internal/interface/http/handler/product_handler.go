package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/interface/presenter"
	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

type ProductHandler struct {
	products  usecase.ProductUsecase
	presenter *presenter.ProductPresenter
	log       zerolog.Logger
}

func NewProductHandler(products usecase.ProductUsecase, presenter *presenter.ProductPresenter, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{products: products, presenter: presenter, log: log}
}

func (h *ProductHandler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/v1/products", h.list)
	r.Get("/api/v1/product/:id", h.get)
}

func (h *ProductHandler) list(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.presenter.ToList(products))
}

func (h *ProductHandler) get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "invalid product id")
	}
	p, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.presenter.ToResponse(p))
}
