// Package pricing computes order money amounts. All arithmetic is done in
// decimal and rounded to two places before it leaves the package.
package pricing

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"canokart/internal/domain"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownShipping = errors.New("unknown shipping method")
)

// ShippingMethod выбор способа доставки для расчёта по весу и расстоянию
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

type shippingRate struct {
	base, perKg, perKm decimal.Decimal
}

var shippingRates = map[ShippingMethod]shippingRate{
	ShippingStandard: {base: decimal.NewFromInt(5), perKg: decimal.RequireFromString("0.5"), perKm: decimal.RequireFromString("0.1")},
	ShippingExpress:  {base: decimal.NewFromInt(15), perKg: decimal.NewFromInt(1), perKm: decimal.RequireFromString("0.2")},
}

// Rules параметры расчёта доставки и налога
type Rules struct {
	FreeShippingThreshold float64            `yaml:"free_shipping_threshold"`
	FlatShipping          float64            `yaml:"flat_shipping"`
	DefaultTaxRate        float64            `yaml:"default_tax_rate"`
	TaxRates              map[string]float64 `yaml:"tax_rates"`
}

// DefaultRules mirrors the storefront: free delivery above 500, flat 50 otherwise,
// state tax table with a 5% fallback.
func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: 500,
		FlatShipping:          50,
		DefaultTaxRate:        0.05,
		TaxRates: map[string]float64{
			"CA": 0.0875,
			"NY": 0.08,
			"TX": 0.0625,
			"FL": 0.06,
		},
	}
}

// Engine считает промежуточные и итоговые суммы заказа
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	normalized := make(map[string]float64, len(rules.TaxRates))
	for k, v := range rules.TaxRates {
		normalized[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	rules.TaxRates = normalized
	return &Engine{rules: rules}
}

// Rules returns the engine configuration
func (e *Engine) Rules() Rules { return e.rules }

// Subtotal sums price × quantity over the line items
func (e *Engine) Subtotal(items []domain.OrderItem) (float64, error) {
	sum, err := subtotal(items)
	if err != nil {
		return 0, err
	}
	return round(sum), nil
}

func subtotal(items []domain.OrderItem) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, it := range items {
		if it.Price < 0 || it.Quantity < 0 {
			return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "line %s", it.ProductID)
		}
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum, nil
}

// Total returns max(0, subtotal − discount) + shipping + tax
func Total(subtotal, discount, shipping, tax float64) (float64, error) {
	if subtotal < 0 || discount < 0 || shipping < 0 || tax < 0 {
		return 0, ErrInvalidAmount
	}
	net := decimal.Max(decimal.Zero, decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount)))
	return round(net.Add(decimal.NewFromFloat(shipping)).Add(decimal.NewFromFloat(tax))), nil
}

// Shipping returns the checkout delivery fee for a subtotal
func (e *Engine) Shipping(subtotal float64) float64 {
	if subtotal <= 0 || subtotal > e.rules.FreeShippingThreshold {
		return 0
	}
	return round(decimal.NewFromFloat(e.rules.FlatShipping))
}

// ShippingQuote is the weight/distance calculator: max(base, weight×rate + distance×rate)
func ShippingQuote(weight, distance float64, method ShippingMethod) (float64, error) {
	if weight < 0 || distance < 0 {
		return 0, ErrInvalidAmount
	}
	r, ok := shippingRates[method]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownShipping, "%q", method)
	}
	cost := decimal.NewFromFloat(weight).Mul(r.perKg).Add(decimal.NewFromFloat(distance).Mul(r.perKm))
	return round(decimal.Max(r.base, cost)), nil
}

// TaxRate looks the state up in the rate table
func (e *Engine) TaxRate(state string) float64 {
	if rate, ok := e.rules.TaxRates[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return rate
	}
	return e.rules.DefaultTaxRate
}

// Tax applies the state rate to amount
func (e *Engine) Tax(amount float64, state string) (float64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	return round(decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(e.TaxRate(state)))), nil
}

// Quote prices a basket. The discount is capped at the subtotal so the recorded
// figures always satisfy total = subtotal − discount + shipping + tax. Tax is
// charged on the discounted amount.
func (e *Engine) Quote(items []domain.OrderItem, discount float64, state string) (domain.Totals, error) {
	if discount < 0 {
		return domain.Totals{}, ErrInvalidAmount
	}
	sub, err := subtotal(items)
	if err != nil {
		return domain.Totals{}, err
	}
	sub = sub.Round(2)
	disc := decimal.Min(decimal.NewFromFloat(discount).Round(2), sub)
	net := sub.Sub(disc)
	shipping := decimal.NewFromFloat(e.Shipping(sub.InexactFloat64()))
	tax := net.Mul(decimal.NewFromFloat(e.TaxRate(state))).Round(2)
	return domain.Totals{
		Subtotal: sub.InexactFloat64(),
		Discount: disc.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    net.Add(shipping).Add(tax).InexactFloat64(),
	}, nil
}

// CouponDiscount computes a coupon's face discount for an order total. Fixed
// coupons are not capped here; Quote caps the applied amount.
func CouponDiscount(c domain.Coupon, orderTotal float64) float64 {
	if c.Type == domain.CouponPercentage {
		return round(decimal.NewFromFloat(orderTotal).Mul(decimal.NewFromFloat(c.Value)).Div(decimal.NewFromInt(100)))
	}
	return round(decimal.NewFromFloat(c.Value))
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
