package presenter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
)

// OrderPresenter shapes orders for delivery layer responses. Only the last
// four digits of the payment reference ever leave the server.
type OrderPresenter struct{}

func NewOrderPresenter() *OrderPresenter {
	return &OrderPresenter{}
}

type OrderLineResponse struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID               string              `json:"orderId"`
	CartID           string              `json:"cartId"`
	CreatedAt        string              `json:"createdAt"`
	ShippingAddress  string              `json:"shippingAddress"`
	PaymentReference string              `json:"paymentReference"`
	Lines            []OrderLineResponse `json:"lines"`
	Subtotal         string              `json:"subtotal"`
	TaxTotal         string              `json:"taxTotal"`
	ShippingFee      string              `json:"shippingFee"`
	GrandTotal       string              `json:"grandTotal"`
}

func (p *OrderPresenter) ToResponse(o *entity.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	res := &OrderResponse{
		ID:               o.ID.String(),
		CartID:           o.CartID.String(),
		CreatedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
		ShippingAddress:  o.ShippingAddress,
		PaymentReference: MaskPayment(o.PaymentLast4),
		Lines:            make([]OrderLineResponse, 0, len(o.Lines)),
		Subtotal:         amount(o.Subtotal),
		TaxTotal:         amount(o.TaxTotal),
		ShippingFee:      amount(o.ShippingFee),
		GrandTotal:       amount(o.GrandTotal),
	}
	for _, l := range o.Lines {
		res.Lines = append(res.Lines, OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Category:    l.Category,
			UnitPrice:   amount(l.UnitPrice),
			Quantity:    l.Quantity,
			Subtotal:    amount(l.Subtotal()),
		})
	}
	return res
}

func (p *OrderPresenter) ToList(orders []*entity.Order) []*OrderResponse {
	result := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, p.ToResponse(o))
	}
	return result
}

// MaskPayment renders stored last-4 digits as a card-shaped string.
func MaskPayment(last4 string) string {
	return "**** **** **** " + last4
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
