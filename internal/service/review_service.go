package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// ReviewInput отзыв от клиента
type ReviewInput struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// ReviewService принимает отзывы и пересчитывает рейтинг товара
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	tx       repository.TxManager
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, tx repository.TxManager) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, tx: tx}
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}
	return s.reviews.List(ctx, repository.ReviewFilter{ProductID: productID})
}

// Create stores the review and refreshes the product's mean rating in the
// same transaction
func (s *ReviewService) Create(ctx context.Context, userID string, in ReviewInput) (*domain.Review, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if in.ProductID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "productId is required")
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, errors.Wrapf(ErrInvalidInput, "rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	r := domain.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
			return err
		}
		if err := s.reviews.Create(ctx, &r); err != nil {
			return err
		}
		all, err := s.reviews.List(ctx, repository.ReviewFilter{ProductID: in.ProductID})
		if err != nil {
			return err
		}
		avg, n := meanRating(all)
		return s.products.SetRating(ctx, in.ProductID, avg, n)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// meanRating rounds to two places
func meanRating(reviews []domain.Review) (float64, int64) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	n := int64(len(reviews))
	avg, _ := sum.Div(decimal.NewFromInt(n)).Round(2).Float64()
	return avg, n
}
