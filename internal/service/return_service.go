package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// ReturnReview решение администратора по заявке
type ReturnReview struct {
	Status       domain.ReturnStatus `json:"status"`
	RefundAmount *float64            `json:"refundAmount,omitempty"`
	AdminNotes   string              `json:"adminNotes,omitempty"`
}

// ReturnService заявки на возврат заказов
type ReturnService struct {
	returns  repository.ReturnRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	tx       repository.TxManager
}

func NewReturnService(returns repository.ReturnRepository, orders repository.OrderRepository, products repository.ProductRepository, tx repository.TxManager) *ReturnService {
	return &ReturnService{returns: returns, orders: orders, products: products, tx: tx}
}

// Request opens a return for the caller's order. Only one open request per order.
func (s *ReturnService) Request(ctx context.Context, userID, orderID, reason string) (*domain.ReturnRequest, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if orderID == "" || strings.TrimSpace(reason) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "orderId and reason are required")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	if o.Status == domain.OrderStatusCancelled {
		return nil, errors.Wrap(ErrInvalidState, "order is cancelled")
	}
	existing, err := s.returns.List(ctx, repository.ReturnFilter{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.Status != domain.ReturnRejected {
			return nil, errors.Wrapf(ErrInvalidState, "return already %s", r.Status)
		}
	}
	r := domain.ReturnRequest{
		OrderID: orderID,
		UserID:  userID,
		Reason:  strings.TrimSpace(reason),
		Status:  domain.ReturnPending,
	}
	if err := s.returns.Create(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReturnService) ListForUser(ctx context.Context, userID string) ([]domain.ReturnRequest, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.returns.List(ctx, repository.ReturnFilter{UserID: userID})
}

func (s *ReturnService) ListAll(ctx context.Context) ([]domain.ReturnRequest, error) {
	return s.returns.List(ctx, repository.ReturnFilter{})
}

// Review применяет решение администратора; processed возвращает товар на склад один раз
func (s *ReturnService) Review(ctx context.Context, id string, rv ReturnReview) (*domain.ReturnRequest, error) {
	if id == "" || !rv.Status.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown return status %q", rv.Status)
	}
	if rv.RefundAmount != nil && *rv.RefundAmount < 0 {
		return nil, errors.Wrap(ErrInvalidInput, "refundAmount must be non-negative")
	}
	var updated *domain.ReturnRequest
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		r, err := s.returns.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r.Status == domain.ReturnProcessed {
			return errors.Wrap(ErrInvalidState, "return already processed")
		}
		o, err := s.orders.GetByID(ctx, r.OrderID)
		if err != nil {
			return err
		}
		if rv.RefundAmount != nil && *rv.RefundAmount > o.Total {
			return errors.Wrapf(ErrInvalidInput, "refund exceeds order total %.2f", o.Total)
		}
		if rv.Status == domain.ReturnProcessed {
			if err := restock(ctx, s.products, o.Items); err != nil {
				return err
			}
		}
		r.Status = rv.Status
		if rv.RefundAmount != nil {
			amount := *rv.RefundAmount
			r.RefundAmount = &amount
		}
		if rv.AdminNotes != "" {
			r.AdminNotes = rv.AdminNotes
		}
		if err := s.returns.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
