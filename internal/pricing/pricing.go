// Package pricing turns priced cart lines into subtotal, tax, shipping and
// grand total. Everything here is pure.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Config carries the tax and shipping constants.
type Config struct {
	ElectronicsRate       decimal.Decimal
	DefaultRate           decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ElectronicsCategories []string
}

// DefaultConfig is 10% for electronics, 21% otherwise, 50 shipping below 1000.
func DefaultConfig() Config {
	return Config{
		ElectronicsRate:       decimal.RequireFromString("0.10"),
		DefaultRate:           decimal.RequireFromString("0.21"),
		ShippingFee:           decimal.NewFromInt(50),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		ElectronicsCategories: []string{
			"electronics",
			"electronic",
			"electrical",
			"electronica",
			"electrónica",
			"electronicos",
			"electrónicos",
			"gadgets",
		},
	}
}

// Line is one priced line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Category  string
}

// Subtotal is UnitPrice × Quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are rounded to 2 places; GrandTotal is the sum of the rounded parts.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"taxTotal"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// Classifier decides which categories count as electronics.
type Classifier struct {
	electronics map[string]struct{}
}

// NewClassifier matches categories trimmed and case-insensitively against
// the given names. Blank names are ignored.
func NewClassifier(categories []string) Classifier {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if n := normalize(c); n != "" {
			set[n] = struct{}{}
		}
	}
	return Classifier{electronics: set}
}

// IsElectronics reports whether category is one of the electronics names.
func (c Classifier) IsElectronics(category string) bool {
	_, ok := c.electronics[normalize(category)]
	return ok
}

func normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Engine applies a Config to sets of lines.
type Engine struct {
	cfg        Config
	classifier Classifier
}

// NewEngine builds an Engine and its Classifier from cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, classifier: NewClassifier(cfg.ElectronicsCategories)}
}

// TaxRate returns the rate applied to a line of the given category.
func (e *Engine) TaxRate(category string) decimal.Decimal {
	if e.classifier.IsElectronics(category) {
		return e.cfg.ElectronicsRate
	}
	return e.cfg.DefaultRate
}

// Compute prices lines. Sums are carried unrounded and rounded once at the
// end so per-line rounding never compounds.
func (e *Engine) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		ls := l.Subtotal()
		subtotal = subtotal.Add(ls)
		tax = tax.Add(ls.Mul(e.TaxRate(l.Category)))
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThan(e.cfg.FreeShippingThreshold) {
		shipping = e.cfg.ShippingFee
	}

	sub := round(subtotal)
	taxTotal := round(tax)
	shipping = round(shipping)
	return Totals{
		Subtotal:    sub,
		TaxTotal:    taxTotal,
		ShippingFee: shipping,
		GrandTotal:  sub.Add(taxTotal).Add(shipping),
	}
}

// round is half-up for the non-negative amounts handled here.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
