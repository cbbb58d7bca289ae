package service

import (
	"context"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// RecentlyViewedService история просмотренных товаров
type RecentlyViewedService struct {
	recent   repository.RecentlyViewedRepository
	products repository.ProductRepository
}

func NewRecentlyViewedService(recent repository.RecentlyViewedRepository, products repository.ProductRepository) *RecentlyViewedService {
	return &RecentlyViewedService{recent: recent, products: products}
}

// Record moves productID to the front of the history and trims it to
// domain.RecentlyViewedLimit
func (s *RecentlyViewedService) Record(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if productID == "" {
		return ErrInvalidInput
	}
	r, err := s.recent.Get(ctx, userID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(r.ProductIDs)+1)
	ids = append(ids, productID)
	for _, id := range r.ProductIDs {
		if id != productID {
			ids = append(ids, id)
		}
	}
	if len(ids) > domain.RecentlyViewedLimit {
		ids = ids[:domain.RecentlyViewedLimit]
	}
	r.ProductIDs = ids
	return s.recent.Save(ctx, r)
}

// List returns the viewed products, most recent first. Deleted products are skipped.
func (s *RecentlyViewedService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	r, err := s.recent.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(r.ProductIDs))
	if len(r.ProductIDs) == 0 {
		return out, nil
	}
	found, err := s.products.List(ctx, repository.ProductFilter{IDs: r.ProductIDs})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, id := range r.ProductIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
