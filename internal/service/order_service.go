package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"canokart/internal/checkout"
	"canokart/internal/domain"
	"canokart/internal/payment"
	"canokart/internal/pricing"
	"canokart/internal/repository"
)

// OrderService реализует логику заказов: оформление, просмотр, смена статуса, отмена
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	coupons  *CouponService
	pricing  *pricing.Engine
	payments payment.Gateway
	tx       repository.TxManager
	log      *zap.Logger
}

// OrderDeps зависимости сервиса заказов
type OrderDeps struct {
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Carts    repository.CartRepository
	Coupons  *CouponService
	Pricing  *pricing.Engine
	Payments payment.Gateway
	Tx       repository.TxManager
	Log      *zap.Logger
}

func NewOrderService(d OrderDeps) *OrderService {
	return &OrderService{
		products: d.Products,
		orders:   d.Orders,
		carts:    d.Carts,
		coupons:  d.Coupons,
		pricing:  d.Pricing,
		payments: d.Payments,
		tx:       d.Tx,
		log:      d.Log,
	}
}

var (
	ErrNotEnoughStock = errors.New("not enough stock")
	ErrInvalidState   = errors.New("invalid state")
)

// PlaceOrder входные данные оформления заказа
type PlaceOrder struct {
	UserID        string
	Guest         *domain.GuestInfo
	Items         []domain.OrderItem
	Address       *domain.Address
	CouponCode    string
	PaymentMethod domain.PaymentMethod
	// ClientTotal is what the buyer was shown; it never overrides server pricing
	ClientTotal *float64
}

// CheckoutRequest оформление заказа из корзины
type CheckoutRequest struct {
	Address       domain.Address       `json:"address"`
	CouponCode    string               `json:"couponCode,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// GuestCheckoutRequest оформление без аккаунта
type GuestCheckoutRequest struct {
	Items         []domain.OrderItem   `json:"items"`
	GuestInfo     domain.GuestInfo     `json:"guestInfo"`
	CouponCode    string               `json:"couponCode,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Total         *float64             `json:"total,omitempty"`
}

// Quote prices items from the catalog and applies the coupon. Prices sent by
// the client are ignored.
func (s *OrderService) Quote(ctx context.Context, items []domain.OrderItem, couponCode, state string) ([]domain.OrderItem, domain.Totals, error) {
	priced := checkout.NormalizeItems(items)
	for i := range priced {
		p, err := s.products.GetByID(ctx, priced[i].ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Totals{}, errors.Wrapf(ErrInvalidInput, "unknown product %s", priced[i].ProductID)
		}
		if err != nil {
			return nil, domain.Totals{}, err
		}
		priced[i].Price = p.Price
	}
	discount := 0.0
	if strings.TrimSpace(couponCode) != "" {
		sub, err := s.pricing.Subtotal(priced)
		if err != nil {
			return nil, domain.Totals{}, err
		}
		res, err := s.coupons.Validate(ctx, couponCode, sub)
		if err != nil {
			return nil, domain.Totals{}, err
		}
		discount = res.Discount
	}
	totals, err := s.pricing.Quote(priced, discount, state)
	if err != nil {
		return nil, domain.Totals{}, err
	}
	return priced, totals, nil
}

func validatePlace(req *PlaceOrder) (domain.Address, error) {
	if (req.UserID == "") == (req.Guest == nil) {
		return domain.Address{}, errors.Wrap(ErrInvalidInput, "order needs exactly one of user or guest")
	}
	if req.Guest != nil && !req.Guest.Valid() {
		return domain.Address{}, errors.Wrap(ErrInvalidInput, "guest name, email and address are required")
	}
	if len(req.Items) == 0 {
		return domain.Address{}, errors.Wrap(ErrInvalidInput, "order has no items")
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return domain.Address{}, errors.Wrap(ErrInvalidInput, "every item needs a product and a positive quantity")
		}
	}
	var addr domain.Address
	switch {
	case req.Address != nil:
		addr = *req.Address
	case req.Guest != nil:
		addr = req.Guest.Address
	}
	if !addr.Complete() {
		return domain.Address{}, errors.Wrap(ErrInvalidInput, "delivery address is required")
	}
	if !req.PaymentMethod.Valid() {
		return domain.Address{}, errors.Wrapf(ErrInvalidInput, "unsupported payment method %q", req.PaymentMethod)
	}
	return addr, nil
}

// Place reprices the items and charges the payment gateway once, then
// reserves stock, persists a confirmed order and records the coupon use in a
// single transaction. A charge whose order could not be written is refunded.
func (s *OrderService) Place(ctx context.Context, req PlaceOrder) (*domain.Order, error) {
	addr, err := validatePlace(&req)
	if err != nil {
		return nil, err
	}
	couponCode := domain.NormalizeCouponCode(req.CouponCode)

	items, totals, err := s.Quote(ctx, req.Items, couponCode, addr.State)
	if err != nil {
		return nil, err
	}
	if err := s.checkStock(ctx, items); err != nil {
		return nil, err
	}

	// the transaction callback may be retried, so the charge stays outside it
	receipt, err := s.payments.Charge(ctx, payment.Charge{Amount: totals.Total, Method: req.PaymentMethod})
	if err != nil {
		return nil, err
	}

	draft := domain.Order{
		UserID:        req.UserID,
		GuestInfo:     req.Guest,
		Items:         items,
		Totals:        totals,
		CouponCode:    couponCode,
		Address:       addr,
		PaymentMethod: req.PaymentMethod,
		TransactionID: receipt.TransactionID,
		Status:        domain.OrderStatusConfirmed,
	}
	var created *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reserve(ctx, items); err != nil {
			return err
		}
		o := draft
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		if couponCode != "" {
			// re-checked under the transaction so concurrent orders cannot overshoot maxUses
			if _, err := s.coupons.Validate(ctx, couponCode, totals.Subtotal); err != nil {
				return err
			}
			if err := s.coupons.Redeem(ctx, couponCode); err != nil {
				return err
			}
		}
		created = &o
		return nil
	})
	if err != nil {
		s.refund(ctx, receipt.TransactionID, err)
		return nil, err
	}

	if req.ClientTotal != nil && math.Abs(*req.ClientTotal-created.Total) > 0.01 {
		s.log.Warn("client total differs from server pricing",
			zap.String("orderId", created.ID),
			zap.Float64("client", *req.ClientTotal),
			zap.Float64("server", created.Total))
	}
	s.notify(created, "order confirmation")
	return created, nil
}

// checkStock rejects the order before any money moves
func (s *OrderService) checkStock(ctx context.Context, items []domain.OrderItem) error {
	for _, it := range items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < it.Quantity {
			return errors.Wrapf(ErrNotEnoughStock, "%s: %d left", p.Name, p.Stock)
		}
	}
	return nil
}

// reserve re-checks and decrements stock; it must run inside a transaction
func (s *OrderService) reserve(ctx context.Context, items []domain.OrderItem) error {
	reserved := make([]*domain.Product, 0, len(items))
	for _, it := range items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < it.Quantity {
			return errors.Wrapf(ErrNotEnoughStock, "%s: %d left", p.Name, p.Stock)
		}
		p.Stock -= it.Quantity
		reserved = append(reserved, p)
	}
	for _, p := range reserved {
		if err := s.products.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) refund(ctx context.Context, transactionID string, cause error) {
	if err := s.payments.Refund(context.WithoutCancel(ctx), transactionID); err != nil {
		s.log.Error("refund failed",
			zap.String("transactionId", transactionID),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	s.log.Warn("payment refunded",
		zap.String("transactionId", transactionID),
		zap.Error(cause))
}

// Checkout оформляет заказ из сохранённой корзины; корзина очищается только после успеха
func (s *OrderService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "cart is empty")
	}
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	addr := req.Address
	o, err := s.Place(ctx, PlaceOrder{
		UserID:        userID,
		Items:         items,
		Address:       &addr,
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, userID); err != nil {
		s.log.Warn("cart clear failed", zap.String("userId", userID), zap.Error(err))
	}
	return o, nil
}

// GuestCheckout оформляет заказ без аккаунта; цены пересчитываются по каталогу
func (s *OrderService) GuestCheckout(ctx context.Context, req GuestCheckoutRequest) (*domain.Order, error) {
	guest := req.GuestInfo
	return s.Place(ctx, PlaceOrder{
		Guest:         &guest,
		Items:         req.Items,
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
		ClientTotal:   req.Total,
	})
}

// GetOrder возвращает заказ по id. Заказы покупателей видны владельцу и
// администратору, гостевые заказы доступны по id.
func (s *OrderService) GetOrder(ctx context.Context, who domain.Identity, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != "" && o.UserID != who.UserID && !who.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return s.orders.List(ctx, repository.OrderFilter{UserID: userID})
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{})
}

// UpdateStatus переводит заказ по графу статусов; отмена возвращает товар на склад
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if id == "" || !next.Known() {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown status %q", next)
	}
	return s.transition(ctx, id, next, func(*domain.Order) error { return nil })
}

// Cancel отменяет заказ покупателя, пока он не ушёл в обработку
func (s *OrderService) Cancel(ctx context.Context, who domain.Identity, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.transition(ctx, id, domain.OrderStatusCancelled, func(o *domain.Order) error {
		if o.UserID != who.UserID && !who.IsAdmin() {
			return ErrForbidden
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusConfirmed {
			return errors.Wrapf(ErrInvalidState, "order is %s", o.Status)
		}
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, id string, next domain.OrderStatus, check func(*domain.Order) error) (*domain.Order, error) {
	var updated *domain.Order
	changed := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := check(o); err != nil {
			return err
		}
		updated = o
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return errors.Wrapf(ErrInvalidState, "cannot move from %s to %s", o.Status, next)
		}
		if next == domain.OrderStatusCancelled {
			if err := restock(ctx, s.products, o.Items); err != nil {
				return err
			}
		}
		o.Status = next
		changed = true
		return s.orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(updated, "order status "+string(next))
	}
	return updated, nil
}

// restock returns items to the shelf. Products deleted since are skipped.
func restock(ctx context.Context, products repository.ProductRepository, items []domain.OrderItem) error {
	for _, it := range items {
		p, err := products.GetByID(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		p.Stock += it.Quantity
		if err := products.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// notify stands in for the e-mail sender
func (s *OrderService) notify(o *domain.Order, subject string) {
	to := o.ContactEmail()
	if to == "" {
		to = "user:" + o.UserID
	}
	s.log.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("orderId", o.ID),
		zap.String("status", string(o.Status)))
}
