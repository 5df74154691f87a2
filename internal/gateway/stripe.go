package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Stripe struct {
	api *client.API
	cfg StripeConfig
}

func NewStripe(cfg StripeConfig) *Stripe {
	if cfg.Currency == "" {
		cfg.Currency = "inr"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	return &Stripe{api: client.New(cfg.SecretKey, nil), cfg: cfg}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(withPaymentID(s.cfg.SuccessURL, req.PaymentID.String())),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataPaymentID, req.PaymentID.String())
	params.AddMetadata("tenantId", req.TenantID.String())
	params.AddMetadata("amount", req.Amount.StringFixed(2))
	params.AddMetadata("dueDate", req.DueDate.UTC().Format("2006-01-02T15:04:05Z"))

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := &Event{ID: event.ID, Kind: EventKind(event.Type)}
	if !strings.HasPrefix(string(event.Type), "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = session.ID
	out.PaymentStatus = string(session.PaymentStatus)
	out.Metadata = session.Metadata
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out, nil
}

// MinorUnits converts an amount to the smallest currency unit the gateway charges in.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func withPaymentID(base, paymentID string) string {
	if base == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "paymentId=" + paymentID
}
