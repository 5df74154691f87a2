package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventCheckoutCompleted     EventKind = "checkout.session.completed"
	EventAsyncPaymentSucceeded EventKind = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventKind = "checkout.session.async_payment_failed"
)

const (
	SessionPaymentStatusPaid = "paid"
	MetadataPaymentID        = "paymentId"
)

var ErrSignature = errors.New("webhook signature verification failed")

type CheckoutRequest struct {
	PaymentID   uuid.UUID
	TenantID    uuid.UUID
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is the part of a gateway webhook the reconciler acts on.
type Event struct {
	ID              string
	Kind            EventKind
	SessionID       string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

// TransactionID is the payment intent when the gateway reports one, otherwise the session.
func (e Event) TransactionID() string {
	if e.PaymentIntentID != "" {
		return e.PaymentIntentID
	}
	return e.SessionID
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseEvent verifies the signature and decodes the webhook payload.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
