// Package payment is the boundary to the payment processor. Only a mock
// gateway exists; it approves every well-formed charge.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"canokart/internal/domain"
)

var ErrDeclined = errors.New("payment declined")

// Charge запрос на списание
type Charge struct {
	Amount float64              `json:"amount"`
	Method domain.PaymentMethod `json:"method"`
}

// Receipt результат списания
type Receipt struct {
	Success       bool                 `json:"success"`
	TransactionID string               `json:"transactionId"`
	Amount        float64              `json:"amount"`
	Method        domain.PaymentMethod `json:"method"`
	Status        string               `json:"status"`
	ProcessedAt   time.Time            `json:"processedAt"`
}

type Gateway interface {
	Charge(ctx context.Context, c Charge) (*Receipt, error)
	// Refund returns a completed charge to the buyer
	Refund(ctx context.Context, transactionID string) error
}

// MockGateway approves every well-formed charge
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (MockGateway) Charge(_ context.Context, c Charge) (*Receipt, error) {
	if c.Amount < 0 || !c.Method.Valid() {
		return nil, errors.Wrapf(ErrDeclined, "amount %.2f method %q", c.Amount, c.Method)
	}
	return &Receipt{
		Success:       true,
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        c.Amount,
		Method:        c.Method,
		Status:        "completed",
		ProcessedAt:   time.Now().UTC(),
	}, nil
}

func (MockGateway) Refund(_ context.Context, transactionID string) error {
	if transactionID == "" {
		return errors.New("refund: empty transaction id")
	}
	return nil
}
