package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
)

func TestReturn_RequestAndProcess(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 10)
	addr := address("CA")
	o, err := f.orders.Place(ctx, PlaceOrder{
		UserID:        buyer.UserID,
		Items:         []domain.OrderItem{{ProductID: p1.ID, Quantity: 4}},
		Address:       &addr,
		PaymentMethod: domain.PaymentCOD,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if _, err := f.returns.Request(ctx, "u2", o.ID, "wrong size"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.returns.Request(ctx, buyer.UserID, o.ID, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	r, err := f.returns.Request(ctx, buyer.UserID, o.ID, "wrong size")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if r.Status != domain.ReturnPending {
		t.Fatalf("expected pending")
	}
	if _, err := f.returns.Request(ctx, buyer.UserID, o.ID, "again"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("duplicate open return, got %v", err)
	}

	tooMuch := o.Total + 1
	if _, err := f.returns.Review(ctx, r.ID, ReturnReview{Status: domain.ReturnApproved, RefundAmount: &tooMuch}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("refund above total must fail, got %v", err)
	}
	refund := 40.0
	r, err = f.returns.Review(ctx, r.ID, ReturnReview{Status: domain.ReturnApproved, RefundAmount: &refund, AdminNotes: "ok"})
	if err != nil || r.Status != domain.ReturnApproved || *r.RefundAmount != 40 {
		t.Fatalf("approve: %v %+v", err, r)
	}
	p, _ := f.products.GetByID(ctx, p1.ID)
	if p.Stock != 6 {
		t.Fatalf("approval must not restock, stock %d", p.Stock)
	}

	r, err = f.returns.Review(ctx, r.ID, ReturnReview{Status: domain.ReturnProcessed})
	if err != nil || r.AdminNotes != "ok" {
		t.Fatalf("process: %v %+v", err, r)
	}
	p, _ = f.products.GetByID(ctx, p1.ID)
	if p.Stock != 10 {
		t.Fatalf("processing must restock, stock %d", p.Stock)
	}
	if _, err := f.returns.Review(ctx, r.ID, ReturnReview{Status: domain.ReturnProcessed}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second processing must fail, got %v", err)
	}

	mine, _ := f.returns.ListForUser(ctx, buyer.UserID)
	all, _ := f.returns.ListAll(ctx)
	if len(mine) != 1 || len(all) != 1 {
		t.Fatalf("lists: %d %d", len(mine), len(all))
	}
}
