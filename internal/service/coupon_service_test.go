package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
)

func TestCoupon_Validate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.coupons.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	one := int64(1)
	for _, c := range []domain.Coupon{
		{Code: "SAVE10", Type: domain.CouponPercentage, Value: 10, MinOrder: 50, Active: true},
		{Code: "FLAT500", Type: domain.CouponFixed, Value: 500, Active: true, ExpiryDate: &future},
		{Code: "OLD", Type: domain.CouponFixed, Value: 5, Active: true, ExpiryDate: &past},
		{Code: "OFF", Type: domain.CouponFixed, Value: 5, Active: false},
		{Code: "ONCE", Type: domain.CouponFixed, Value: 5, Active: true, MaxUses: &one},
	} {
		if _, err := f.coupons.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.Code, err)
		}
	}
	if err := f.coupons.Redeem(ctx, "once"); err != nil {
		t.Fatal(err)
	}

	res, err := f.coupons.Validate(ctx, "save10", 200)
	if err != nil || res.Discount != 20 || res.Code != "SAVE10" {
		t.Fatalf("save10: %v %+v", err, res)
	}
	// fixed discounts are not clamped to the order total
	res, err = f.coupons.Validate(ctx, "flat500", 100)
	if err != nil || res.Discount != 500 {
		t.Fatalf("flat500: %v %+v", err, res)
	}

	cases := []struct {
		code  string
		total float64
		want  error
	}{
		{"SAVE10", 49.99, ErrCouponMinOrder},
		{"MISSING", 100, ErrCouponNotFound},
		{"OLD", 100, ErrCouponNotFound},
		{"OFF", 100, ErrCouponNotFound},
		{"ONCE", 100, ErrCouponUsageExceeded},
		{"", 100, ErrInvalidInput},
		{"SAVE10", -1, ErrInvalidInput},
	}
	for _, c := range cases {
		if _, err := f.coupons.Validate(ctx, c.code, c.total); !errors.Is(err, c.want) {
			t.Fatalf("%s/%v: expected %v, got %v", c.code, c.total, c.want, err)
		}
	}
}

func TestCoupon_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c, err := f.coupons.Create(ctx, domain.Coupon{Code: " welcome ", Type: domain.CouponFixed, Value: 100, Active: true, UsedCount: 7})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Code != "WELCOME" || c.UsedCount != 0 {
		t.Fatalf("not normalized: %+v", c)
	}
	if _, err := f.coupons.Create(ctx, domain.Coupon{Code: "Welcome", Type: domain.CouponFixed, Value: 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate must be rejected, got %v", err)
	}
	for _, bad := range []domain.Coupon{
		{Code: "", Type: domain.CouponFixed, Value: 1},
		{Code: "X", Type: "bogo", Value: 1},
		{Code: "X", Type: domain.CouponPercentage, Value: 101},
		{Code: "X", Type: domain.CouponFixed, Value: 0},
		{Code: "X", Type: domain.CouponFixed, Value: 1, MinOrder: -1},
	} {
		if _, err := f.coupons.Create(ctx, bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid for %+v, got %v", bad, err)
		}
	}
	list, _ := f.coupons.List(ctx)
	if len(list) != 1 {
		t.Fatalf("list: %d", len(list))
	}
}
