package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

func TestCart_AddMergesAndClamps(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10.5, 5)
	p2 := f.product(t, "B", 20, 5)

	if _, err := f.carts.Add(ctx, "u1", p1.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := f.carts.Add(ctx, "u1", p1.ID, 0)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 3 {
		t.Fatalf("expected one merged row of 3, got %+v", c.Items)
	}
	if _, err := f.carts.Add(ctx, "u1", "missing", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown product must fail, got %v", err)
	}
	if _, err := f.carts.Add(ctx, "", p1.ID, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous add must fail, got %v", err)
	}

	if _, err := f.carts.Add(ctx, "u1", p2.ID, 1); err != nil {
		t.Fatal(err)
	}
	c, err = f.carts.SetQuantity(ctx, "u1", p2.ID, -4)
	if err != nil || c.Items[1].Quantity != 1 {
		t.Fatalf("quantity must clamp to 1: %v %+v", err, c.Items)
	}
	if _, err := f.carts.SetQuantity(ctx, "u1", "missing", 2); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	view, err := f.carts.View(ctx, "u1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Items) != 2 || view.Items[0].LineTotal != 31.5 || view.Subtotal != 51.5 {
		t.Fatalf("view: %+v", view)
	}

	// deleted products drop out of the view
	if err := f.products.Delete(ctx, admin, p2.ID); err != nil {
		t.Fatal(err)
	}
	view, _ = f.carts.View(ctx, "u1")
	if len(view.Items) != 1 || view.Subtotal != 31.5 {
		t.Fatalf("view after delete: %+v", view)
	}

	c, err = f.carts.Remove(ctx, "u1", p1.ID)
	if err != nil || len(c.Items) != 1 {
		t.Fatalf("remove: %v %+v", err, c.Items)
	}
	if err := f.carts.Clear(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	view, _ = f.carts.View(ctx, "u1")
	if len(view.Items) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestCart_MergeGuestItems(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	p2 := f.product(t, "B", 20, 5)
	if _, err := f.carts.Add(ctx, "u1", p1.ID, 1); err != nil {
		t.Fatal(err)
	}
	c, err := f.carts.Merge(ctx, "u1", []domain.CartItem{
		{ProductID: p1.ID, Quantity: 2},
		{ProductID: p2.ID, Quantity: 0},
		{ProductID: "gone", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(c.Items) != 2 || c.Items[0].Quantity != 3 || c.Items[1].Quantity != 1 {
		t.Fatalf("merged cart: %+v", c.Items)
	}
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1 := f.product(t, "A", 10, 5)
	p2 := f.product(t, "B", 20, 5)
	for _, id := range []string{p1.ID, p2.ID, p1.ID} {
		if _, err := f.wishlist.Add(ctx, "u1", id); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	list, err := f.wishlist.Get(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("wishlist: %v %d", err, len(list))
	}
	w, err := f.wishlist.Remove(ctx, "u1", p1.ID)
	if err != nil || len(w.ProductIDs) != 1 || w.ProductIDs[0] != p2.ID {
		t.Fatalf("remove: %v %+v", err, w)
	}
	if _, err := f.wishlist.Add(ctx, "u1", "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	empty, _ := f.wishlist.Get(ctx, "u2")
	if len(empty) != 0 {
		t.Fatalf("fresh wishlist not empty")
	}
}
