package service

import (
	"context"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/pricing"
	"canokart/internal/repository"
)

// CartLine строка корзины с данными товара
type CartLine struct {
	Product   domain.Product `json:"product"`
	Quantity  int64          `json:"quantity"`
	LineTotal float64        `json:"lineTotal"`
}

// CartView корзина для отображения
type CartView struct {
	UserID   string     `json:"userId"`
	Items    []CartLine `json:"items"`
	Subtotal float64    `json:"subtotal"`
}

// CartService управляет корзиной пользователя
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	pricing  *pricing.Engine
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, engine *pricing.Engine) *CartService {
	return &CartService{carts: carts, products: products, pricing: engine}
}

// View returns the cart with live product data. Rows whose product no longer
// exists are left out.
func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{UserID: userID, Items: make([]CartLine, 0, len(c.Items))}
	priced := make([]domain.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		line := []domain.OrderItem{{ProductID: p.ID, Quantity: it.Quantity, Price: p.Price}}
		lineTotal, err := s.pricing.Subtotal(line)
		if err != nil {
			return nil, err
		}
		view.Items = append(view.Items, CartLine{Product: *p, Quantity: it.Quantity, LineTotal: lineTotal})
		priced = append(priced, line[0])
	}
	view.Subtotal, err = s.pricing.Subtotal(priced)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Add merges qty into the product's row, creating it if needed
func (s *CartService) Add(ctx context.Context, userID, productID string, qty int64) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if productID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "productId is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	mergeCartItem(c, productID, clampQuantity(qty))
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetQuantity overwrites the row quantity, clamped to at least one
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, qty int64) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cartIndex(c, productID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	c.Items[i].Quantity = clampQuantity(qty)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cartIndex(c, productID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge folds a guest's offline cart into the stored one at sign-in.
// Unknown products are dropped.
func (s *CartService) Merge(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ProductID == "" {
			continue
		}
		_, err := s.products.GetByID(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		mergeCartItem(c, it.ProductID, clampQuantity(it.Quantity))
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	return s.carts.Delete(ctx, userID)
}

func clampQuantity(q int64) int64 {
	if q < 1 {
		return 1
	}
	return q
}

func cartIndex(c *domain.Cart, productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func mergeCartItem(c *domain.Cart, productID string, qty int64) {
	if i := cartIndex(c, productID); i >= 0 {
		c.Items[i].Quantity += qty
		return
	}
	c.Items = append(c.Items, domain.CartItem{ProductID: productID, Quantity: qty})
}

// WishlistService избранное пользователя
type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products}
}

// Get returns the wishlisted products that still exist
func (s *WishlistService) Get(ctx context.Context, userID string) ([]domain.Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	w, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(w.ProductIDs) == 0 {
		return []domain.Product{}, nil
	}
	return s.products.List(ctx, repository.ProductFilter{IDs: w.ProductIDs})
}

// Add is idempotent
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if productID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "productId is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range w.ProductIDs {
		if id == productID {
			return w, nil
		}
	}
	w.ProductIDs = append(w.ProductIDs, productID)
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	w, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := w.ProductIDs[:0]
	for _, id := range w.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	w.ProductIDs = kept
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
