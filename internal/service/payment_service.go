package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/gateway"
	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/workflow"
)

type ExcelGenerator interface {
	Generate(statement model.PaymentStatement) ([]byte, error)
}

type PaymentService struct {
	payments   *repository.PaymentRepository
	agreements *repository.AgreementRepository
	properties *repository.PropertyRepository
	gateway    gateway.Gateway
	producer   queue.Producer
	excel      ExcelGenerator
	log        zerolog.Logger
	now        func() time.Time
}

func NewPaymentService(
	payments *repository.PaymentRepository,
	agreements *repository.AgreementRepository,
	properties *repository.PropertyRepository,
	gw gateway.Gateway,
	producer queue.Producer,
	excel ExcelGenerator,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		agreements: agreements,
		properties: properties,
		gateway:    gw,
		producer:   producer,
		excel:      excel,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type CheckoutResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url,omitempty"`
}

// CreateCheckoutSession opens a hosted checkout for one pending payment and keeps the
// session id on the row until the webhook settles it.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, principal model.Principal, paymentID uuid.UUID) (*CheckoutResult, error) {
	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && payment.TenantID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	if payment.Status != model.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidTransition, payment.Status)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		PaymentID:   payment.ID,
		TenantID:    payment.TenantID,
		Amount:      payment.Amount,
		DueDate:     payment.DueDate,
		Description: fmt.Sprintf("Rent due %s", payment.DueDate.Format(time.DateOnly)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if err := s.payments.SetTransaction(ctx, payment.ID, session.ID); err != nil {
		return nil, err
	}

	return &CheckoutResult{Success: true, SessionID: session.ID, URL: session.URL}, nil
}

type WebhookAction string

const (
	WebhookApplied  WebhookAction = "applied"
	WebhookReplayed WebhookAction = "replayed"
	WebhookIgnored  WebhookAction = "ignored"
	WebhookRejected WebhookAction = "rejected"
)

// WebhookResult says what a gateway event did to the payment table.
type WebhookResult struct {
	EventID   string        `json:"eventId"`
	Kind      string        `json:"type"`
	PaymentID uuid.UUID     `json:"paymentId,omitempty"`
	Action    WebhookAction `json:"action"`
	Reason    string        `json:"reason,omitempty"`
}

func (s *PaymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrSignature) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &WebhookResult{EventID: event.ID, Kind: string(event.Kind)}
	ignore := func(reason string) (*WebhookResult, error) {
		result.Action = WebhookIgnored
		result.Reason = reason
		s.log.Info().
			Str("event_id", event.ID).
			Str("event_type", string(event.Kind)).
			Str("reason", reason).
			Msg("webhook event ignored")
		return result, nil
	}

	var target model.PaymentStatus
	switch event.Kind {
	case gateway.EventCheckoutCompleted:
		if event.PaymentStatus != gateway.SessionPaymentStatusPaid {
			return ignore("checkout session not paid yet")
		}
		target = model.PaymentStatusCompleted
	case gateway.EventAsyncPaymentSucceeded:
		target = model.PaymentStatusCompleted
	case gateway.EventAsyncPaymentFailed:
		target = model.PaymentStatusFailed
	default:
		return ignore("unhandled event type")
	}

	rawID, ok := event.Metadata[gateway.MetadataPaymentID]
	if !ok || rawID == "" {
		return ignore("missing paymentId metadata")
	}
	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		return ignore("malformed paymentId metadata")
	}
	result.PaymentID = paymentID

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ignore("payment not found")
		}
		return nil, err
	}

	switch workflow.Settle(payment.Status, target) {
	case workflow.SettlementReplay:
		result.Action = WebhookReplayed
		return result, nil
	case workflow.SettlementReject:
		result.Action = WebhookRejected
		result.Reason = fmt.Sprintf("payment already %s", payment.Status)
		s.log.Warn().
			Str("payment_id", payment.ID.String()).
			Str("status", string(payment.Status)).
			Str("target", string(target)).
			Msg("webhook tried to move a settled payment")
		return result, nil
	}

	var paidAt *time.Time
	if target == model.PaymentStatusCompleted {
		now := s.now()
		paidAt = &now
	}
	updated, err := s.payments.Settle(ctx, payment.ID, target, paidAt, event.TransactionID())
	if err != nil {
		return nil, err
	}
	if !updated {
		// Settled by a concurrent delivery of the same event.
		result.Action = WebhookReplayed
		return result, nil
	}
	result.Action = WebhookApplied

	payment.Status = target
	payment.PaidDate = paidAt
	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(target)).
		Msg("payment settled")

	// Publish failures are logged only; the row is already settled.
	if target == model.PaymentStatusCompleted {
		if err := workflow.PublishAll(ctx, s.producer, workflow.PaymentCompleted(*payment)); err != nil {
			result.Reason = "tenant notification not queued"
			s.log.Error().
				Err(err).
				Str("payment_id", payment.ID.String()).
				Msg("publish payment notification")
		}
	}
	return result, nil
}

// Get returns a payment visible to the principal: its tenant, the owner of the
// leased property, or an admin.
func (s *PaymentService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.IsAdmin():
	case principal.IsTenant() && payment.TenantID == principal.UserID:
	case principal.IsOwner():
		if err := s.ensureOwner(ctx, principal, payment.AgreementID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrPermissionDenied
	}
	return payment, nil
}

func (s *PaymentService) History(ctx context.Context, principal model.Principal) ([]model.Payment, error) {
	filter, err := scopeFilter(principal)
	if err != nil {
		return nil, err
	}
	filter.Statuses = []model.PaymentStatus{model.PaymentStatusCompleted, model.PaymentStatusFailed}
	return s.payments.List(ctx, filter)
}

func (s *PaymentService) Upcoming(ctx context.Context, principal model.Principal) ([]model.Payment, error) {
	filter, err := scopeFilter(principal)
	if err != nil {
		return nil, err
	}
	filter.Statuses = []model.PaymentStatus{model.PaymentStatusPending}
	filter.Ascending = true
	return s.payments.List(ctx, filter)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// Export writes every payment visible to the principal into a spreadsheet.
func (s *PaymentService) Export(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	filter, err := scopeFilter(principal)
	if err != nil {
		return nil, err
	}
	filter.Ascending = true
	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	content, err := s.excel.Generate(model.PaymentStatement{
		Title:       fmt.Sprintf("Payments of %s", principal.Role),
		GeneratedAt: now,
		Payments:    payments,
	})
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("payments_%s.xlsx", now.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *PaymentService) loadPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) ensureOwner(ctx context.Context, principal model.Principal, agreementID uuid.UUID) error {
	agreement, err := s.agreements.Get(ctx, agreementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	property, err := s.properties.Get(ctx, agreement.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if property.OwnerID != principal.UserID {
		return ErrPermissionDenied
	}
	return nil
}

func scopeFilter(principal model.Principal) (repository.PaymentFilter, error) {
	userID := principal.UserID
	switch {
	case principal.IsAdmin():
		return repository.PaymentFilter{}, nil
	case principal.IsTenant():
		return repository.PaymentFilter{TenantID: &userID}, nil
	case principal.IsOwner():
		return repository.PaymentFilter{OwnerID: &userID}, nil
	default:
		return repository.PaymentFilter{}, ErrPermissionDenied
	}
}
