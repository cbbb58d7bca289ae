package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"canokart/internal/checkout"
	"canokart/internal/domain"
	"canokart/internal/repository"
)

// CheckoutService хранит сессии мастера оформления и ведёт их по шагам
type CheckoutService struct {
	sessions  repository.CheckoutSessionRepository
	carts     repository.CartRepository
	addresses *AddressService
	orders    *OrderService
	log       *zap.Logger
	now       func() time.Time
}

func NewCheckoutService(sessions repository.CheckoutSessionRepository, carts repository.CartRepository, addresses *AddressService, orders *OrderService, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session at cart review. Signed-in buyers without explicit
// items start from their stored cart, and their default address is preselected.
func (s *CheckoutService) Start(ctx context.Context, who domain.Identity, items []domain.OrderItem) (*checkout.State, error) {
	if len(items) == 0 && who.Authenticated() {
		cart, err := s.carts.Get(ctx, who.UserID)
		if err != nil {
			return nil, err
		}
		for _, it := range cart.Items {
			items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	// session ids are the only credential of a guest checkout
	st := checkout.New(uuid.NewString(), who.UserID, items, s.now())
	if who.Authenticated() {
		def, err := s.addresses.Default(ctx, who.UserID)
		if err != nil {
			return nil, err
		}
		if def != nil {
			addr := def.Address
			st.SelectedAddress = &addr
		}
	}
	if err := s.reprice(ctx, &st); err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *CheckoutService) Get(ctx context.Context, who domain.Identity, id string) (*checkout.State, error) {
	return s.load(ctx, who, id)
}

// Update merges patch without moving
func (s *CheckoutService) Update(ctx context.Context, who domain.Identity, id string, patch checkout.Patch) (*checkout.State, error) {
	st, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAddress(ctx, st, &patch); err != nil {
		return nil, err
	}
	next, err := checkout.Reduce(*st, checkout.ActionUpdate, patch)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next)
}

// Next merges patch and advances one step. Leaving payment selection places
// the order; on failure the session stays where it was and the error is returned.
func (s *CheckoutService) Next(ctx context.Context, who domain.Identity, id string, patch checkout.Patch) (*checkout.State, error) {
	st, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAddress(ctx, st, &patch); err != nil {
		return nil, err
	}
	if st.Step != checkout.StepPaymentSelection || st.Placed() {
		next, err := checkout.Reduce(*st, checkout.ActionNext, patch)
		if err != nil {
			return nil, err
		}
		return s.save(ctx, next)
	}

	staged, err := checkout.Reduce(*st, checkout.ActionUpdate, patch)
	if err != nil {
		return nil, err
	}
	req := PlaceOrder{
		UserID:        staged.UserID,
		Items:         staged.Items,
		Address:       staged.ShippingAddress(),
		CouponCode:    staged.CouponCode,
		PaymentMethod: staged.PaymentMethod,
		ClientTotal:   &staged.Totals.Total,
	}
	if staged.IsGuest() {
		req.Guest = staged.Guest
	}
	o, err := s.orders.Place(ctx, req)
	if err != nil {
		return nil, err
	}
	staged.Items = o.Items
	staged.Totals = o.Totals
	orderID := o.ID
	next, err := checkout.Reduce(staged, checkout.ActionNext, checkout.Patch{OrderID: &orderID})
	if err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, next)
	if err != nil {
		// the order exists but the session still points at payment
		s.log.Error("checkout session save failed after placement",
			zap.String("sessionId", next.ID),
			zap.String("orderId", orderID),
			zap.Error(err))
		return nil, err
	}
	if !saved.IsGuest() {
		if err := s.carts.Delete(ctx, saved.UserID); err != nil {
			s.log.Warn("cart clear failed", zap.String("userId", saved.UserID), zap.Error(err))
		}
	}
	return saved, nil
}

// Prev moves back one step; data is kept
func (s *CheckoutService) Prev(ctx context.Context, who domain.Identity, id string) (*checkout.State, error) {
	st, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	prev, err := checkout.Reduce(*st, checkout.ActionPrev, checkout.Patch{})
	if err != nil {
		return nil, err
	}
	return s.save(ctx, prev)
}

// resolveAddress replaces patch.AddressID with the saved address it names
func (s *CheckoutService) resolveAddress(ctx context.Context, st *checkout.State, patch *checkout.Patch) error {
	if patch.AddressID == nil {
		return nil
	}
	if st.IsGuest() {
		return errors.Wrap(ErrInvalidInput, "guest checkout has no saved addresses")
	}
	a, err := s.addresses.Get(ctx, st.UserID, *patch.AddressID)
	if errors.Is(err, repository.ErrNotFound) {
		return errors.Wrapf(ErrInvalidInput, "unknown address %s", *patch.AddressID)
	}
	if err != nil {
		return err
	}
	addr := a.Address
	patch.SelectedAddress = &addr
	patch.AddressID = nil
	return nil
}

func (s *CheckoutService) load(ctx context.Context, who domain.Identity, id string) (*checkout.State, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.IsGuest() && st.UserID != who.UserID {
		return nil, ErrForbidden
	}
	st.StepName = st.Step.String()
	return st, nil
}

func (s *CheckoutService) save(ctx context.Context, st checkout.State) (*checkout.State, error) {
	if err := s.reprice(ctx, &st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// reprice refreshes prices and totals from the catalog until the order exists
func (s *CheckoutService) reprice(ctx context.Context, st *checkout.State) error {
	if st.Placed() {
		return nil
	}
	state := ""
	if addr := st.ShippingAddress(); addr != nil {
		state = addr.State
	}
	items, totals, err := s.orders.Quote(ctx, st.Items, st.CouponCode, state)
	if err != nil {
		return err
	}
	st.Items = items
	st.Totals = totals
	return nil
}
