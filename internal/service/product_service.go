package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// RecommendationLimit число рекомендаций для карточки товара
const RecommendationLimit = 4

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
)

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	repo   repository.ProductRepository
	orders repository.OrderRepository
}

func NewProductService(repo repository.ProductRepository, orders repository.OrderRepository) *ProductService {
	return &ProductService{repo: repo, orders: orders}
}

func validateProduct(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.Wrap(ErrInvalidInput, "name is required")
	case strings.TrimSpace(p.Category) == "":
		return errors.Wrap(ErrInvalidInput, "category is required")
	case p.Price < 0:
		return errors.Wrap(ErrInvalidInput, "price must be non-negative")
	case p.Stock < 0:
		return errors.Wrap(ErrInvalidInput, "stock must be non-negative")
	}
	return nil
}

// canManage sellers manage their own listings, admins manage everything
func canManage(who domain.Identity, p *domain.Product) bool {
	if who.IsAdmin() {
		return true
	}
	return who.IsSeller() && p.SellerID == who.UserID
}

// Create добавляет товар; продавец становится владельцем
func (s *ProductService) Create(ctx context.Context, who domain.Identity, p domain.Product) (*domain.Product, error) {
	if !who.IsAdmin() && !who.IsSeller() {
		return nil, ErrForbidden
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	cp.ID = ""
	if who.IsSeller() {
		cp.SellerID = who.UserID
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update заменяет поля товара; владелец и дата создания сохраняются
func (s *ProductService) Update(ctx context.Context, who domain.Identity, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !canManage(who, existing) {
		return nil, ErrForbidden
	}
	cp := p
	cp.SellerID = existing.SellerID
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, who domain.Identity, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(who, existing) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, errors.Wrap(ErrInvalidInput, "minPrice exceeds maxPrice")
	}
	if f.Sort != "" && !f.Sort.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown sort %q", f.Sort)
	}
	return s.repo.List(ctx, f)
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Distinct(ctx, "category", repository.ProductFilter{})
}

func (s *ProductService) Subcategories(ctx context.Context, category string) ([]string, error) {
	if strings.TrimSpace(category) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "category is required")
	}
	return s.repo.Distinct(ctx, "subcategory", repository.ProductFilter{Category: category, Exact: true})
}

func (s *ProductService) Brands(ctx context.Context) ([]string, error) {
	return s.repo.Distinct(ctx, "brand", repository.ProductFilter{})
}

// Recommendations ранжирует товары, купленные вместе с данным, и
// добирает до лимита товарами той же категории
func (s *ProductService) Recommendations(ctx context.Context, id string) ([]domain.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, repository.OrderFilter{ProductID: id})
	if err != nil {
		return nil, err
	}
	freq := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			if it.ProductID != id {
				freq[it.ProductID]++
			}
		}
	}
	ranked := make([]string, 0, len(freq))
	for pid := range freq {
		ranked = append(ranked, pid)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > RecommendationLimit {
		ranked = ranked[:RecommendationLimit]
	}

	out := make([]domain.Product, 0, RecommendationLimit)
	if len(ranked) > 0 {
		found, err := s.repo.List(ctx, repository.ProductFilter{IDs: ranked})
		if err != nil {
			return nil, err
		}
		byID := make(map[string]domain.Product, len(found))
		for _, fp := range found {
			byID[fp.ID] = fp
		}
		// products deleted since the order are skipped
		for _, pid := range ranked {
			if fp, ok := byID[pid]; ok {
				out = append(out, fp)
			}
		}
	}
	if len(out) < RecommendationLimit {
		exclude := []string{id}
		for _, fp := range out {
			exclude = append(exclude, fp.ID)
		}
		fill, err := s.repo.List(ctx, repository.ProductFilter{
			Category:   p.Category,
			Exact:      true,
			ExcludeIDs: exclude,
			Limit:      RecommendationLimit - len(out),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, fill...)
	}
	return out, nil
}

const (
	FeaturedLimit   = 6
	CollectionLimit = 20
)

// Featured returns the best-rated products, newest first among equals.
// Unreviewed products rank with domain.UnratedScore.
func (s *ProductService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.ranked(ctx, FeaturedLimit, func(a, b domain.Product) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Collection ranks like Featured but breaks ties by the lower price
func (s *ProductService) Collection(ctx context.Context) ([]domain.Product, error) {
	return s.ranked(ctx, CollectionLimit, func(a, b domain.Product) bool {
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (s *ProductService) ranked(ctx context.Context, limit int, tie func(a, b domain.Product) bool) ([]domain.Product, error) {
	all, err := s.repo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if si, sj := all[i].Score(), all[j].Score(); si != sj {
			return si > sj
		}
		return tie(all[i], all[j])
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
