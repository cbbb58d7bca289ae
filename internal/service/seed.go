package service

import (
	"context"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// Seed fills an empty catalog with sample products and the SAVE10 coupon.
// A catalog that already has products is left alone.
func Seed(ctx context.Context, products repository.ProductRepository, coupons repository.CouponRepository) error {
	n, err := products.Count(ctx, repository.ProductFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, p := range sampleProducts() {
		p := p
		if err := products.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "seed %s", p.Name)
		}
	}
	maxUses := int64(100)
	c := domain.Coupon{
		Code:     "SAVE10",
		Type:     domain.CouponPercentage,
		Value:    10,
		MinOrder: 50,
		MaxUses:  &maxUses,
		Active:   true,
	}
	if err := coupons.Create(ctx, &c); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return errors.Wrap(err, "seed coupon")
	}
	return nil
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{Name: "Men's Casual T-shirt", Category: "Men", Subcategory: "T-Shirts", Brand: "Levis",
			Description: "Cotton crew neck tee", Price: 799, Stock: 50,
			Images: []string{"/images/men-tshirt.jpg"}},
		{Name: "Slim Fit Denim Jeans", Category: "Men", Subcategory: "Jeans", Brand: "Levis",
			Description: "Stretch denim, mid rise", Price: 1999, Stock: 30,
			Images: []string{"/images/men-jeans.jpg"}},
		{Name: "Women's Silk Saree", Category: "Women", Subcategory: "Sarees", Brand: "Fabindia",
			Description: "Handwoven silk with zari border", Price: 4999, Stock: 10,
			Images: []string{"/images/women-saree.jpg"}},
		{Name: "Cotton Kurta Set", Category: "Women", Subcategory: "Kurtas", Brand: "Biba",
			Description: "Printed kurta with palazzo", Price: 1499, Stock: 25,
			Images: []string{"/images/women-kurta.jpg"}},
		{Name: "Kids Cartoon Hoodie", Category: "Kids", Subcategory: "Winterwear", Brand: "Gini & Jony",
			Description: "Fleece hoodie", Price: 899, Stock: 0,
			Images: []string{"/images/kids-hoodie.jpg"}},
		{Name: "Running Shoes", Category: "Footwear", Subcategory: "Sports", Brand: "Puma",
			Description: "Lightweight mesh runners", Price: 2999, Stock: 40},
		{Name: "Leather Wallet", Category: "Accessories", Subcategory: "Wallets", Brand: "Hidesign",
			Description: "Bifold leather wallet", Price: 1299, Stock: 15,
			Images: []string{"/images/wallet.jpg"}},
	}
}
