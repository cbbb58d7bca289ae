package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"canokart/internal/checkout"
	"canokart/internal/domain"
	"canokart/internal/repository"
)

func TestCheckoutSession_Walk(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 100, 5)
	if _, err := f.carts.Add(ctx, buyer.UserID, p1.ID, 2); err != nil {
		t.Fatal(err)
	}

	st, err := f.checkout.Start(ctx, buyer, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Step != checkout.StepCartReview || len(st.Items) != 1 || st.Totals.Subtotal != 200 {
		t.Fatalf("start state: %+v", st)
	}

	// prev is clamped at the first step
	st, err = f.checkout.Prev(ctx, buyer, st.ID)
	if err != nil || st.Step != checkout.StepCartReview {
		t.Fatalf("prev at start: %v %v", err, st.Step)
	}

	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{})
	if err != nil || st.Step != checkout.StepAddressSelection {
		t.Fatalf("to address: %v", err)
	}
	// no address, no progress
	if _, err := f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{}); !errors.Is(err, checkout.ErrIncomplete) {
		t.Fatalf("expected incomplete, got %v", err)
	}

	addr := address("CA")
	code := "save10"
	if _, err := f.coupons.Create(ctx, domain.Coupon{Code: "SAVE10", Type: domain.CouponPercentage, Value: 10, MinOrder: 50, Active: true}); err != nil {
		t.Fatal(err)
	}
	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{SelectedAddress: &addr, CouponCode: &code})
	if err != nil || st.Step != checkout.StepOrderSummary {
		t.Fatalf("to summary: %v", err)
	}
	want := domain.Totals{Subtotal: 200, Discount: 20, Shipping: 50, Tax: 15.75, Total: 245.75}
	if st.Totals != want {
		t.Fatalf("summary totals %+v, want %+v", st.Totals, want)
	}

	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{})
	if err != nil || st.Step != checkout.StepPaymentSelection {
		t.Fatalf("to payment: %v", err)
	}
	if _, err := f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("placing without payment method must fail, got %v", err)
	}
	got, _ := f.checkout.Get(ctx, buyer, st.ID)
	if got.Step != checkout.StepPaymentSelection || got.Placed() {
		t.Fatalf("failed placement moved the session: %+v", got)
	}

	method := domain.PaymentCard
	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{PaymentMethod: &method})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if st.Step != checkout.StepConfirmation || st.StepName != checkout.StepConfirmation.String() || !st.Placed() {
		t.Fatalf("confirmation state: %+v", st)
	}
	o, err := f.orders.GetOrder(ctx, buyer, st.OrderID)
	if err != nil || o.Total != 245.75 {
		t.Fatalf("order: %v %+v", err, o)
	}
	view, _ := f.carts.View(ctx, buyer.UserID)
	if len(view.Items) != 0 {
		t.Fatalf("cart not cleared after placement")
	}

	// next is a no-op at the end
	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{})
	if err != nil || st.Step != checkout.StepConfirmation {
		t.Fatalf("next at end: %v", err)
	}

	// going back and forth does not submit twice
	st, _ = f.checkout.Prev(ctx, buyer, st.ID)
	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{})
	if err != nil || st.Step != checkout.StepConfirmation {
		t.Fatalf("re-next: %v", err)
	}
	orders, _ := f.orders.ListForUser(ctx, buyer.UserID)
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	if _, err := f.checkout.Update(ctx, buyer, st.ID, checkout.Patch{CouponCode: &code}); !errors.Is(err, checkout.ErrCompleted) {
		t.Fatalf("update after placement must fail, got %v", err)
	}
}

func TestCheckoutSession_Guest(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 600, 5)
	guest := domain.Identity{}

	st, err := f.checkout.Start(ctx, guest, []domain.OrderItem{{ProductID: p1.ID, Quantity: 1, Price: 1}})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Items[0].Price != 600 {
		t.Fatalf("client price kept: %v", st.Items[0].Price)
	}
	if st.Totals.Shipping != 0 {
		t.Fatalf("free shipping above threshold: %+v", st.Totals)
	}

	st, _ = f.checkout.Next(ctx, guest, st.ID, checkout.Patch{})
	info := domain.GuestInfo{Name: "G", Email: "g@example.com", Address: address("FL")}
	st, err = f.checkout.Next(ctx, guest, st.ID, checkout.Patch{Guest: &info})
	if err != nil || st.Step != checkout.StepOrderSummary {
		t.Fatalf("guest address: %v", err)
	}
	st, _ = f.checkout.Next(ctx, guest, st.ID, checkout.Patch{})
	method := domain.PaymentCOD
	st, err = f.checkout.Next(ctx, guest, st.ID, checkout.Patch{PaymentMethod: &method})
	if err != nil || !st.Placed() {
		t.Fatalf("guest place: %v", err)
	}
	o, err := f.orders.GetOrder(ctx, guest, st.OrderID)
	if err != nil || o.GuestInfo == nil || o.Tax != 36 {
		t.Fatalf("guest order: %v %+v", err, o)
	}
}

func TestCheckoutSession_Ownership(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	st, err := f.checkout.Start(ctx, buyer, []domain.OrderItem{{ProductID: p1.ID, Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	other := domain.Identity{UserID: "u2"}
	if _, err := f.checkout.Get(ctx, other, st.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	bad := "NOPE"
	if _, err := f.checkout.Update(ctx, buyer, st.ID, checkout.Patch{CouponCode: &bad}); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon error, got %v", err)
	}
}

func TestCheckoutSession_GuestIDsAreRandom(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	items := []domain.OrderItem{{ProductID: p1.ID, Quantity: 1}}

	a, err := f.checkout.Start(ctx, domain.Identity{}, items)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.checkout.Start(ctx, domain.Identity{}, items)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{a.ID, b.ID} {
		u, err := uuid.Parse(id)
		if err != nil || u.Version() != 4 {
			t.Fatalf("session id %q is not a random uuid: %v", id, err)
		}
	}
	if a.ID == b.ID {
		t.Fatalf("session ids repeat")
	}
}

func TestCheckoutSession_SavedAddresses(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	items := []domain.OrderItem{{ProductID: p1.ID, Quantity: 1}}

	if _, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Address: address("TX")}); err != nil {
		t.Fatal(err)
	}
	book, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Label: domain.AddressWork, Address: address("CA")})
	if err != nil {
		t.Fatal(err)
	}

	st, err := f.checkout.Start(ctx, buyer, items)
	if err != nil {
		t.Fatal(err)
	}
	if st.SelectedAddress == nil || st.SelectedAddress.State != "TX" {
		t.Fatalf("default address not preselected: %+v", st.SelectedAddress)
	}

	st, _ = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{})
	work := book[1].ID
	st, err = f.checkout.Next(ctx, buyer, st.ID, checkout.Patch{AddressID: &work})
	if err != nil || st.Step != checkout.StepOrderSummary {
		t.Fatalf("pick saved address: %v", err)
	}
	if st.SelectedAddress.State != "CA" || st.Totals.Tax == 0 {
		t.Fatalf("saved address not applied: %+v %+v", st.SelectedAddress, st.Totals)
	}

	missing := "nope"
	if _, err := f.checkout.Update(ctx, buyer, st.ID, checkout.Patch{AddressID: &missing}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown address: expected invalid input, got %v", err)
	}

	guest, err := f.checkout.Start(ctx, domain.Identity{}, items)
	if err != nil {
		t.Fatal(err)
	}
	if guest.SelectedAddress != nil {
		t.Fatalf("guest got a preselected address")
	}
	if _, err := f.checkout.Update(ctx, domain.Identity{}, guest.ID, checkout.Patch{AddressID: &work}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("guest address book: expected invalid input, got %v", err)
	}
}

// placedSaveFails rejects saving a session that already carries an order
type placedSaveFails struct {
	*repository.MemoryCheckoutSessions
}

func (r placedSaveFails) Save(ctx context.Context, s *checkout.State) error {
	if s.Placed() {
		return errors.New("connection reset")
	}
	return r.MemoryCheckoutSessions.Save(ctx, s)
}

func TestCheckoutSession_SaveFailureAfterPlacementIsLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.ErrorLevel)
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	svc := NewCheckoutService(placedSaveFails{f.sessions}, f.cartsRepo, f.addresses, f.orders, zap.New(core))

	st, err := svc.Start(ctx, buyer, []domain.OrderItem{{ProductID: p1.ID, Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	addr := address("CA")
	st, _ = svc.Next(ctx, buyer, st.ID, checkout.Patch{})
	st, _ = svc.Next(ctx, buyer, st.ID, checkout.Patch{SelectedAddress: &addr})
	st, err = svc.Next(ctx, buyer, st.ID, checkout.Patch{})
	if err != nil || st.Step != checkout.StepPaymentSelection {
		t.Fatalf("to payment: %v", err)
	}
	method := domain.PaymentCard
	if _, err := svc.Next(ctx, buyer, st.ID, checkout.Patch{PaymentMethod: &method}); err == nil {
		t.Fatalf("expected save failure")
	}

	orders, _ := f.orders.ListForUser(ctx, buyer.UserID)
	if len(orders) != 1 {
		t.Fatalf("expected the placed order, got %d", len(orders))
	}
	entries := logs.FilterMessage("checkout session save failed after placement").All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["orderId"] != orders[0].ID || fields["sessionId"] != st.ID {
		t.Fatalf("log fields: %v", fields)
	}
}
