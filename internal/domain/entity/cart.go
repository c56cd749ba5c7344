package entity

import (
	"time"

	"github.com/google/uuid"
)

type CartState string

const (
	CartOpen      CartState = "OPEN"
	CartFinalized CartState = "FINALIZED"
	CartCancelled CartState = "CANCELLED"
)

// CartLine is one (product, quantity) pairing inside a cart.
type CartLine struct {
	ProductID int
	Quantity  int
	AddedAt   time.Time
}

// Cart is a user's collection of lines. A user has at most one OPEN cart.
type Cart struct {
	ID        uuid.UUID
	UserID    int
	State     CartState
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart returns an empty OPEN cart for userID.
func NewCart(userID int, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		State:     CartOpen,
		Lines:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsOpen() bool {
	return c.State == CartOpen
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID int) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// QuantityOf is the quantity already in the cart for productID.
func (c *Cart) QuantityOf(productID int) int {
	l, _ := c.Line(productID)
	return l.Quantity
}

// SetQuantity replaces or appends the line for productID, keeping insertion
// order. A quantity of zero or less removes the line.
func (c *Cart) SetQuantity(productID, quantity int, now time.Time) CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return CartLine{ProductID: productID}
		}
		c.Lines[i].Quantity = quantity
		return c.Lines[i]
	}
	if quantity <= 0 {
		return CartLine{ProductID: productID}
	}
	line := CartLine{ProductID: productID, Quantity: quantity, AddedAt: now}
	c.Lines = append(c.Lines, line)
	return line
}

// CanTransitionTo reports whether the state machine allows moving to next.
// OPEN is the only state with outgoing transitions.
func (c *Cart) CanTransitionTo(next CartState) bool {
	if c.State != CartOpen {
		return false
	}
	return next == CartFinalized || next == CartCancelled
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	return &cp
}
