package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

func defaults(list []domain.SavedAddress) []string {
	var ids []string
	for _, a := range list {
		if a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestAddressBook_DefaultRules(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	list, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Address: address("TX")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault || list[0].Label != domain.AddressHome {
		t.Fatalf("first address must be the default home address: %+v", list)
	}
	home := list[0].ID

	list, _ = f.addresses.Add(ctx, buyer.UserID, AddressInput{Label: domain.AddressWork, Address: address("CA")})
	if d := defaults(list); len(d) != 1 || d[0] != home {
		t.Fatalf("second address took the default: %v", d)
	}
	work := list[1].ID

	list, err = f.addresses.Update(ctx, buyer.UserID, work, AddressInput{Label: domain.AddressWork, Address: address("NY"), IsDefault: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if d := defaults(list); len(d) != 1 || d[0] != work || list[1].State != "NY" {
		t.Fatalf("default not moved: %+v", list)
	}

	list, err = f.addresses.Delete(ctx, buyer.UserID, work)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault || list[0].ID != home {
		t.Fatalf("default not promoted after delete: %+v", list)
	}

	def, _ := f.addresses.Default(ctx, buyer.UserID)
	if def == nil || def.ID != home {
		t.Fatalf("default: %+v", def)
	}
	if other, _ := f.addresses.List(ctx, "u2"); len(other) != 0 {
		t.Fatalf("address books leak between users")
	}
}

func TestAddressBook_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.addresses.Add(ctx, "", AddressInput{Address: address("TX")}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Address: domain.Address{FullName: "X"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("partial address: expected invalid input, got %v", err)
	}
	if _, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Label: "cottage", Address: address("TX")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad label: expected invalid input, got %v", err)
	}
	if _, err := f.addresses.Delete(ctx, buyer.UserID, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for i := 0; i < MaxSavedAddresses; i++ {
		if _, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Address: address("TX")}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := f.addresses.Add(ctx, buyer.UserID, AddressInput{Address: address("TX")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("full book: expected invalid input, got %v", err)
	}
}
