package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canokart/internal/domain"
)

func TestSubtotal(t *testing.T) {
	e := NewEngine(DefaultRules())
	got, err := e.Subtotal([]domain.OrderItem{{Price: 19.99, Quantity: 3}, {Price: 0.01, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 59.98, got)

	_, err = e.Subtotal([]domain.OrderItem{{Price: -1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.Subtotal([]domain.OrderItem{{Price: 1, Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTotal_ClampsNetAtZero(t *testing.T) {
	got, err := Total(10, 25, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	got, err = Total(100, 20, 50, 8.75)
	require.NoError(t, err)
	assert.Equal(t, 138.75, got)

	_, err = Total(10, -1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestShipping_FreeAboveThreshold(t *testing.T) {
	e := NewEngine(DefaultRules())
	assert.Equal(t, 50.0, e.Shipping(200))
	assert.Equal(t, 50.0, e.Shipping(500))
	assert.Equal(t, 0.0, e.Shipping(500.01))
	assert.Equal(t, 0.0, e.Shipping(0))
}

func TestShippingQuote(t *testing.T) {
	got, err := ShippingQuote(2, 10, ShippingStandard)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got, "base applies when the formula is cheaper")

	got, err = ShippingQuote(20, 100, ShippingStandard)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	got, err = ShippingQuote(20, 100, ShippingExpress)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got)

	_, err = ShippingQuote(1, 1, "drone")
	assert.ErrorIs(t, err, ErrUnknownShipping)
}

func TestTax_RateTable(t *testing.T) {
	e := NewEngine(DefaultRules())
	assert.Equal(t, 0.0875, e.TaxRate("ca"))
	assert.Equal(t, 0.05, e.TaxRate("WA"))

	got, err := e.Tax(100, "NY")
	require.NoError(t, err)
	assert.Equal(t, 8.0, got)

	got, err = e.Tax(33.33, "")
	require.NoError(t, err)
	assert.Equal(t, 1.67, got)
}

func TestQuote_SatisfiesTotalIdentity(t *testing.T) {
	e := NewEngine(DefaultRules())
	cases := []struct {
		items    []domain.OrderItem
		discount float64
		state    string
	}{
		{[]domain.OrderItem{{Price: 100, Quantity: 2}}, 20, "CA"},
		{[]domain.OrderItem{{Price: 999.5, Quantity: 1}}, 0, "TX"},
		{[]domain.OrderItem{{Price: 10, Quantity: 1}}, 50, "FL"},
		{[]domain.OrderItem{{Price: 12.34, Quantity: 7}, {Price: 0.99, Quantity: 3}}, 3.21, "ZZ"},
	}
	for _, c := range cases {
		got, err := e.Quote(c.items, c.discount, c.state)
		require.NoError(t, err)
		want, err := Total(got.Subtotal, got.Discount, got.Shipping, got.Tax)
		require.NoError(t, err)
		assert.InDelta(t, want, got.Total, 0.001)
		assert.InDelta(t, got.Subtotal-got.Discount+got.Shipping+got.Tax, got.Total, 0.001)
		assert.LessOrEqual(t, got.Discount, got.Subtotal)
	}
}

func TestQuote_CouponScenario(t *testing.T) {
	e := NewEngine(DefaultRules())
	coupon := domain.Coupon{Code: "SAVE10", Type: domain.CouponPercentage, Value: 10, MinOrder: 50, Active: true}
	items := []domain.OrderItem{{ProductID: "p1", Price: 100, Quantity: 2}}

	discount := CouponDiscount(coupon, 200)
	assert.Equal(t, 20.0, discount)

	got, err := e.Quote(items, discount, "CA")
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{Subtotal: 200, Discount: 20, Shipping: 50, Tax: 15.75, Total: 245.75}, got)
}

func TestCouponDiscount_FixedNotCapped(t *testing.T) {
	c := domain.Coupon{Type: domain.CouponFixed, Value: 75}
	assert.Equal(t, 75.0, CouponDiscount(c, 40))
}
