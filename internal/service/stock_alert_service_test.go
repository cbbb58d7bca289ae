package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"canokart/internal/domain"
)

func TestStockAlerts_NotifyOnRestock(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	f := setupLogged(t, zap.New(core))
	p := f.product(t, "Sold out", 10, 0)

	n, err := f.alerts.Subscribe(ctx, buyer, p.ID, "jane@example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	again, err := f.alerts.Subscribe(ctx, buyer, p.ID, "jane@example.com")
	if err != nil || again.ID != n.ID {
		t.Fatalf("second subscribe must return the pending one: %v %+v", err, again)
	}

	// restock through the product service
	restocked := *p
	restocked.Stock = 3
	if _, err := f.products.Update(ctx, admin, restocked); err != nil {
		t.Fatalf("restock: %v", err)
	}
	sent := logs.FilterMessage("email sent").FilterField(zap.String("subject", "back in stock")).All()
	if len(sent) != 1 || sent[0].ContextMap()["to"] != "jane@example.com" {
		t.Fatalf("notifications: %+v", sent)
	}

	// further updates while in stock send nothing
	restocked.Stock = 5
	if _, err := f.products.Update(ctx, admin, restocked); err != nil {
		t.Fatal(err)
	}
	if got := logs.FilterMessage("email sent").FilterField(zap.String("subject", "back in stock")).Len(); got != 1 {
		t.Fatalf("notified %d times", got)
	}

	if _, err := f.alerts.Subscribe(ctx, buyer, p.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("in-stock product: expected invalid state, got %v", err)
	}
}

func TestStockAlerts_CancelRestockNotifies(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	f := setupLogged(t, zap.New(core))
	p := f.product(t, "Last one", 10, 1)
	addr := address("TX")
	o, err := f.orders.Place(ctx, PlaceOrder{
		UserID:        buyer.UserID,
		Items:         []domain.OrderItem{{ProductID: p.ID, Quantity: 1}},
		Address:       &addr,
		PaymentMethod: domain.PaymentCOD,
	})
	if err != nil {
		t.Fatal(err)
	}
	waiter := domain.Identity{UserID: "u2", Role: domain.RoleCustomer}
	if _, err := f.alerts.Subscribe(ctx, waiter, p.ID, ""); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := f.orders.Cancel(ctx, buyer, o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	sent := logs.FilterMessage("email sent").FilterField(zap.String("to", "user:u2")).Len()
	if sent != 1 {
		t.Fatalf("cancel restock notified %d times", sent)
	}
}

func TestStockAlerts_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.alerts.Subscribe(ctx, domain.Identity{}, "p", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.alerts.Subscribe(ctx, buyer, "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecentlyViewed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ids := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		ids = append(ids, f.product(t, "P", float64(i+1), 1).ID)
	}
	for _, id := range ids {
		if err := f.recent.Record(ctx, buyer.UserID, id); err != nil {
			t.Fatal(err)
		}
	}
	// viewing again moves to the front without duplicating
	if err := f.recent.Record(ctx, buyer.UserID, ids[5]); err != nil {
		t.Fatal(err)
	}
	if err := f.products.Delete(ctx, admin, ids[11]); err != nil {
		t.Fatal(err)
	}

	list, err := f.recent.List(ctx, buyer.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != domain.RecentlyViewedLimit-1 {
		t.Fatalf("expected %d products, got %d", domain.RecentlyViewedLimit-1, len(list))
	}
	if list[0].ID != ids[5] || list[1].ID != ids[10] {
		t.Fatalf("order: %s %s", list[0].ID, list[1].ID)
	}
	if _, err := f.recent.List(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
