package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog's view of something for sale.
type Product struct {
	ID        int
	Name      string
	Price     decimal.Decimal
	Category  string
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
