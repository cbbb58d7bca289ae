package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// StockAlertService подписки «сообщить о поступлении»
type StockAlertService struct {
	alerts   repository.StockNotificationRepository
	products repository.ProductRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewStockAlertService(alerts repository.StockNotificationRepository, products repository.ProductRepository, log *zap.Logger) *StockAlertService {
	return &StockAlertService{
		alerts:   alerts,
		products: products,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers the user for a back-in-stock message. Subscribing
// twice returns the pending subscription.
func (s *StockAlertService) Subscribe(ctx context.Context, who domain.Identity, productID, email string) (*domain.StockNotification, error) {
	if !who.Authenticated() {
		return nil, ErrUnauthorized
	}
	if productID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "productId is required")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Available() {
		return nil, errors.Wrapf(ErrInvalidState, "%s is in stock", p.Name)
	}
	n := domain.StockNotification{UserID: who.UserID, ProductID: productID, Email: strings.TrimSpace(email)}
	err = s.alerts.Create(ctx, &n)
	if errors.Is(err, repository.ErrDuplicate) {
		pending, err := s.alerts.ListPending(ctx, productID)
		if err != nil {
			return nil, err
		}
		for i := range pending {
			if pending[i].UserID == who.UserID {
				return &pending[i], nil
			}
		}
		return nil, repository.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Notify messages every pending subscriber of p and marks them served
func (s *StockAlertService) Notify(ctx context.Context, p *domain.Product) error {
	pending, err := s.alerts.ListPending(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, n := range pending {
		to := n.Email
		if to == "" {
			to = "user:" + n.UserID
		}
		s.log.Info("email sent",
			zap.String("to", to),
			zap.String("subject", "back in stock"),
			zap.String("productId", p.ID))
		if err := s.alerts.MarkNotified(ctx, n.ID, s.now()); err != nil {
			return errors.Wrapf(err, "mark %s", n.ID)
		}
	}
	return nil
}

// Watch wraps products so that an update bringing a product back in stock
// notifies its subscribers
func (s *StockAlertService) Watch(products repository.ProductRepository) repository.ProductRepository {
	return &watchedProducts{ProductRepository: products, alerts: s}
}

type watchedProducts struct {
	repository.ProductRepository
	alerts *StockAlertService
}

func (w *watchedProducts) Update(ctx context.Context, p *domain.Product) error {
	old, err := w.ProductRepository.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := w.ProductRepository.Update(ctx, p); err != nil {
		return err
	}
	if !old.Available() && p.Available() {
		if err := w.alerts.Notify(ctx, p); err != nil {
			w.alerts.log.Warn("stock notification failed", zap.String("productId", p.ID), zap.Error(err))
		}
	}
	return nil
}
