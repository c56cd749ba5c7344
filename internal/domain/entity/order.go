package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine snapshots a cart line at checkout time. Later catalog changes
// never reach it.
type OrderLine struct {
	ProductID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Category    string
	Quantity    int
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the immutable record of a finalized cart.
type Order struct {
	ID              uuid.UUID
	UserID          int
	CartID          uuid.UUID
	CreatedAt       time.Time
	ShippingAddress string
	PaymentLast4    string
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	GrandTotal      decimal.Decimal
	Lines           []OrderLine
}

func (o *Order) Clone() *Order {
	cp := *o
	cp.Lines = make([]OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}
