// Package checkout models the five-step checkout wizard as a pure state
// transition function. Persistence, pricing and order placement live in the
// service layer; this package only decides whether a transition is allowed.
package checkout

import (
	"time"

	"github.com/go-faster/errors"

	"canokart/internal/domain"
)

// Step is a 1-based wizard position
type Step int

const (
	StepCartReview Step = iota + 1
	StepAddressSelection
	StepOrderSummary
	StepPaymentSelection
	StepConfirmation
)

var stepNames = map[Step]string{
	StepCartReview:       "Cart Review",
	StepAddressSelection: "Delivery Address",
	StepOrderSummary:     "Order Summary",
	StepPaymentSelection: "Payment",
	StepConfirmation:     "Confirmation",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "Unknown"
}

// Action is a wizard input
type Action string

const (
	ActionUpdate Action = "update"
	ActionNext   Action = "next"
	ActionPrev   Action = "prev"
)

var (
	// ErrIncomplete is returned when the current step's requirements are not met
	ErrIncomplete = errors.New("checkout step incomplete")
	// ErrCompleted is returned when a placed checkout is modified
	ErrCompleted = errors.New("checkout already completed")
	// ErrUnknownAction is returned for actions other than update, next and prev
	ErrUnknownAction = errors.New("unknown checkout action")
)

// State is the checkout accumulator. Values are treated as immutable by Reduce.
type State struct {
	ID              string               `json:"id" bson:"_id"`
	UserID          string               `json:"userId,omitempty" bson:"userId,omitempty"`
	Step            Step                 `json:"step" bson:"step"`
	StepName        string               `json:"stepName" bson:"-"`
	Items           []domain.OrderItem   `json:"items" bson:"items"`
	SelectedAddress *domain.Address      `json:"selectedAddress,omitempty" bson:"selectedAddress,omitempty"`
	Guest           *domain.GuestInfo    `json:"guestInfo,omitempty" bson:"guestInfo,omitempty"`
	CouponCode      string               `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod,omitempty" bson:"paymentMethod,omitempty"`
	Totals          domain.Totals        `json:"totals" bson:"totals"`
	OrderID         string               `json:"orderId,omitempty" bson:"orderId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Patch is shallow-merged into a State; nil fields are left untouched
type Patch struct {
	Items           []domain.OrderItem    `json:"items,omitempty"`
	SelectedAddress *domain.Address       `json:"selectedAddress,omitempty"`
	Guest           *domain.GuestInfo     `json:"guestInfo,omitempty"`
	CouponCode      *string               `json:"couponCode,omitempty"`
	PaymentMethod   *domain.PaymentMethod `json:"paymentMethod,omitempty"`
	// AddressID picks a saved address; the caller resolves it into
	// SelectedAddress before Reduce
	AddressID *string `json:"addressId,omitempty"`
	OrderID   *string `json:"-"`
}

func (p Patch) empty() bool {
	return p.Items == nil && p.SelectedAddress == nil && p.Guest == nil &&
		p.CouponCode == nil && p.PaymentMethod == nil && p.OrderID == nil
}

// New starts a wizard at cart review
func New(id, userID string, items []domain.OrderItem, now time.Time) State {
	s := State{
		ID:        id,
		UserID:    userID,
		Step:      StepCartReview,
		Items:     NormalizeItems(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.StepName = s.Step.String()
	return s
}

// ShippingAddress returns the selected address, falling back to the guest's
func (s State) ShippingAddress() *domain.Address {
	if s.SelectedAddress != nil {
		return s.SelectedAddress
	}
	if s.Guest != nil {
		return &s.Guest.Address
	}
	return nil
}

// IsGuest reports whether the session belongs to an anonymous buyer
func (s State) IsGuest() bool { return s.UserID == "" }

// Placed reports whether an order has been created for this checkout
func (s State) Placed() bool { return s.OrderID != "" }

// Reduce applies one action and returns the new state. The input is not modified.
// Prev is clamped at cart review and Next is a no-op at confirmation.
func Reduce(s State, a Action, p Patch) (State, error) {
	next := s.clone()
	switch a {
	case ActionUpdate:
		if err := next.apply(p); err != nil {
			return s, err
		}
	case ActionNext:
		if s.Step >= StepConfirmation {
			return s, nil
		}
		if err := next.apply(p); err != nil {
			return s, err
		}
		if err := Gate(next); err != nil {
			return s, err
		}
		next.Step++
	case ActionPrev:
		if s.Step <= StepCartReview {
			return s, nil
		}
		next.Step--
	default:
		return s, errors.Wrapf(ErrUnknownAction, "%q", a)
	}
	next.StepName = next.Step.String()
	return next, nil
}

// Gate checks everything required to leave the current step, including
// the requirements of earlier steps.
func Gate(s State) error {
	if s.Step >= StepCartReview {
		if len(s.Items) == 0 {
			return errors.Wrap(ErrIncomplete, "cart is empty")
		}
	}
	if s.Step >= StepAddressSelection {
		addr := s.ShippingAddress()
		if addr == nil || !addr.Complete() {
			return errors.Wrap(ErrIncomplete, "delivery address is required")
		}
		if s.IsGuest() && (s.Guest == nil || !s.Guest.Valid()) {
			return errors.Wrap(ErrIncomplete, "guest contact details are required")
		}
	}
	if s.Step >= StepPaymentSelection {
		if !s.PaymentMethod.Valid() {
			return errors.Wrap(ErrIncomplete, "payment method is required")
		}
		if !s.Placed() {
			return errors.Wrap(ErrIncomplete, "order has not been placed")
		}
	}
	return nil
}

func (s *State) apply(p Patch) error {
	if p.empty() {
		return nil
	}
	if s.Placed() {
		return ErrCompleted
	}
	if p.Items != nil {
		s.Items = NormalizeItems(p.Items)
	}
	if p.SelectedAddress != nil {
		a := *p.SelectedAddress
		s.SelectedAddress = &a
	}
	if p.Guest != nil {
		g := *p.Guest
		s.Guest = &g
	}
	if p.CouponCode != nil {
		s.CouponCode = domain.NormalizeCouponCode(*p.CouponCode)
	}
	if p.PaymentMethod != nil {
		if !p.PaymentMethod.Valid() {
			return errors.Wrapf(ErrIncomplete, "unsupported payment method %q", *p.PaymentMethod)
		}
		s.PaymentMethod = *p.PaymentMethod
	}
	if p.OrderID != nil {
		if s.Step != StepPaymentSelection {
			return errors.Wrap(ErrIncomplete, "order can only be placed from payment")
		}
		s.OrderID = *p.OrderID
	}
	return nil
}

func (s State) clone() State {
	c := s
	if s.Items != nil {
		c.Items = append([]domain.OrderItem(nil), s.Items...)
	}
	if s.SelectedAddress != nil {
		a := *s.SelectedAddress
		c.SelectedAddress = &a
	}
	if s.Guest != nil {
		g := *s.Guest
		c.Guest = &g
	}
	return c
}

// NormalizeItems merges duplicate products, clamps quantities to at least one
// and drops rows without a product id.
func NormalizeItems(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
