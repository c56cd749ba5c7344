package presenter

import (
	"github.com/google/uuid"

	"github.com/wichananm65/pet-shop-checkout/internal/usecase"
)

// CartPresenter shapes priced carts for delivery layer responses.
type CartPresenter struct{}

func NewCartPresenter() *CartPresenter {
	return &CartPresenter{}
}

type CartLineResponse struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type CartResponse struct {
	CartID      string             `json:"cartId,omitempty"`
	State       string             `json:"state"`
	Lines       []CartLineResponse `json:"lines"`
	Subtotal    string             `json:"subtotal"`
	TaxTotal    string             `json:"taxTotal"`
	ShippingFee string             `json:"shippingFee"`
	GrandTotal  string             `json:"grandTotal"`
}

func (p *CartPresenter) ToResponse(v *usecase.CartView) *CartResponse {
	if v == nil {
		return nil
	}
	res := &CartResponse{
		State:       string(v.State),
		Lines:       make([]CartLineResponse, 0, len(v.Lines)),
		Subtotal:    amount(v.Subtotal),
		TaxTotal:    amount(v.TaxTotal),
		ShippingFee: amount(v.ShippingFee),
		GrandTotal:  amount(v.GrandTotal),
	}
	if v.CartID != uuid.Nil {
		res.CartID = v.CartID.String()
	}
	for _, l := range v.Lines {
		res.Lines = append(res.Lines, CartLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Category:    l.Category,
			UnitPrice:   amount(l.UnitPrice),
			Quantity:    l.Quantity,
			Subtotal:    amount(l.Subtotal),
		})
	}
	return res
}
