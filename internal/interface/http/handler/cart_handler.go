package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/interface/http/middleware"
	"github.com/wichananm65/pet-shop-checkout/internal/interface/presenter"
	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

// CartHandler adapts cart and checkout requests to use case calls.
type CartHandler struct {
	carts    usecase.CartUsecase
	checkout usecase.CheckoutUsecase
	cartView *presenter.CartPresenter
	orders   *presenter.OrderPresenter
	log      zerolog.Logger
}

func NewCartHandler(carts usecase.CartUsecase, checkout usecase.CheckoutUsecase, cartView *presenter.CartPresenter, orders *presenter.OrderPresenter, log zerolog.Logger) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout, cartView: cartView, orders: orders, log: log}
}

func (h *CartHandler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/v1/cart", h.view)
	r.Post("/api/v1/cart", h.addLine)
	r.Post("/api/v1/cart/cancel", h.cancel)
	r.Post("/api/v1/cart/finalize", h.finalize)
	r.Patch("/api/v1/cart/:productId", h.updateQuantity)
	r.Delete("/api/v1/cart/:productId", h.removeLine)
}

type addLineRequest struct {
	ProductID int  `json:"productId"`
	Quantity  *int `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type finalizeRequest struct {
	ShippingAddress  string `json:"shippingAddress"`
	PaymentReference string `json:"paymentReference"`
}

func (h *CartHandler) view(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	v, err := h.carts.View(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.cartView.ToResponse(v))
}

func (h *CartHandler) addLine(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(addLineRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	if payload.ProductID <= 0 {
		return badRequest(c, "productId is required")
	}
	// an absent quantity means one item
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	v, err := h.carts.AddLine(c.UserContext(), userID, payload.ProductID, qty)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.cartView.ToResponse(v))
}

func (h *CartHandler) updateQuantity(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	productID, err := c.ParamsInt("productId")
	if err != nil || productID <= 0 {
		return badRequest(c, "invalid product id")
	}
	payload := new(updateQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	if payload.Quantity == nil {
		return badRequest(c, "quantity is required")
	}

	v, err := h.carts.UpdateQuantity(c.UserContext(), userID, productID, *payload.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.cartView.ToResponse(v))
}

func (h *CartHandler) removeLine(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	productID, err := c.ParamsInt("productId")
	if err != nil || productID <= 0 {
		return badRequest(c, "invalid product id")
	}

	v, err := h.carts.RemoveLine(c.UserContext(), userID, productID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(h.cartView.ToResponse(v))
}

func (h *CartHandler) cancel(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.checkout.Cancel(c.UserContext(), userID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) finalize(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(finalizeRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}

	order, err := h.checkout.Finalize(c.UserContext(), userID, usecase.FinalizeInput{
		ShippingAddress:  payload.ShippingAddress,
		PaymentReference: payload.PaymentReference,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.orders.ToResponse(order))
}
