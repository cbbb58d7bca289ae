package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/pricing"
	"canokart/internal/repository"
)

var (
	ErrCouponNotFound      = errors.New("invalid or expired coupon code")
	ErrCouponUsageExceeded = errors.New("coupon usage limit exceeded")
	ErrCouponMinOrder      = errors.New("minimum order amount not met")
)

// CouponResult итог проверки промокода
type CouponResult struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// CouponService проверяет и выпускает промокоды
type CouponService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Validate returns the face discount of code for orderTotal. The discount is
// not capped at orderTotal here; order pricing caps it.
func (s *CouponService) Validate(ctx context.Context, code string, orderTotal float64) (*CouponResult, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, errors.Wrap(ErrInvalidInput, "coupon code is required")
	}
	if orderTotal < 0 {
		return nil, errors.Wrap(ErrInvalidInput, "order total must be non-negative")
	}
	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if !c.Live(s.now()) {
		return nil, ErrCouponNotFound
	}
	if c.Exhausted() {
		return nil, ErrCouponUsageExceeded
	}
	if orderTotal < c.MinOrder {
		return nil, errors.Wrapf(ErrCouponMinOrder, "minimum order amount is %.2f", c.MinOrder)
	}
	return &CouponResult{Code: c.Code, Discount: pricing.CouponDiscount(*c, orderTotal)}, nil
}

// Create выпускает промокод; код приводится к верхнему регистру
func (s *CouponService) Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	cp := c
	cp.ID = ""
	cp.Code = domain.NormalizeCouponCode(cp.Code)
	switch {
	case cp.Code == "":
		return nil, errors.Wrap(ErrInvalidInput, "code is required")
	case cp.Type != domain.CouponPercentage && cp.Type != domain.CouponFixed:
		return nil, errors.Wrapf(ErrInvalidInput, "unknown coupon type %q", cp.Type)
	case cp.Value <= 0:
		return nil, errors.Wrap(ErrInvalidInput, "value must be positive")
	case cp.Type == domain.CouponPercentage && cp.Value > 100:
		return nil, errors.Wrap(ErrInvalidInput, "percentage cannot exceed 100")
	case cp.MinOrder < 0:
		return nil, errors.Wrap(ErrInvalidInput, "minOrder must be non-negative")
	case cp.MaxUses != nil && *cp.MaxUses < 1:
		return nil, errors.Wrap(ErrInvalidInput, "maxUses must be positive")
	}
	cp.UsedCount = 0
	if err := s.repo.Create(ctx, &cp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Wrapf(ErrInvalidInput, "coupon %s already exists", cp.Code)
		}
		return nil, err
	}
	return &cp, nil
}

func (s *CouponService) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

// Redeem records one use of code
func (s *CouponService) Redeem(ctx context.Context, code string) error {
	return s.repo.IncrementUsage(ctx, domain.NormalizeCouponCode(code))
}
