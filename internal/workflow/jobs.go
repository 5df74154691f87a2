package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
)

var (
	RentalsTopic   = queue.Topic[RentalDecision]{Queue: "rentalsQueue", Name: "rentals"}
	NotifyTopic    = queue.Topic[Notify]{Queue: "notificationsQueue", Name: "notify"}
	AgreementTopic = queue.Topic[GenerateAgreement]{Queue: "agreementsQueue", Name: "generateAgreement"}
	PaymentsTopic  = queue.Topic[SchedulePayments]{Queue: "paymentsQueue", Name: "processPayments"}
)

// Command is a queued step of the rental workflow.
type Command interface {
	Publish(ctx context.Context, p queue.Producer) error
}

type RentalDecision struct {
	RentalApplication model.RentalApplication `json:"rentalApplication"`
	Status            model.ApplicationStatus `json:"status"`
}

func (c RentalDecision) Publish(ctx context.Context, p queue.Producer) error {
	return RentalsTopic.Publish(ctx, p, c)
}

type NotificationDraft struct {
	UserID  uuid.UUID              `json:"userId" validate:"required"`
	Title   string                 `json:"title" validate:"required"`
	Message string                 `json:"message" validate:"required"`
	Type    model.NotificationType `json:"type" validate:"required,oneof=request approval rejection agreement payment"`
}

type Notify struct {
	NotificationDto NotificationDraft `json:"notificationDto"`
}

func (c Notify) Publish(ctx context.Context, p queue.Producer) error {
	return NotifyTopic.Publish(ctx, p, c)
}

type GenerateAgreement struct {
	RentalApplication model.RentalApplication `json:"rentalApplication"`
}

func (c GenerateAgreement) Publish(ctx context.Context, p queue.Producer) error {
	return AgreementTopic.Publish(ctx, p, c)
}

type PaymentPeriod struct {
	TenantID       uuid.UUID       `json:"tenantId" validate:"required"`
	AgreementID    uuid.UUID       `json:"agreementId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	StartDate      time.Time       `json:"startDate" validate:"required"`
	RentalDuration int             `json:"rentalDuration" validate:"gte=0"`
}

type SchedulePayments struct {
	CreatePaymentPeriodDto PaymentPeriod `json:"createPaymentPeriodDto"`
}

func (c SchedulePayments) Publish(ctx context.Context, p queue.Producer) error {
	return PaymentsTopic.Publish(ctx, p, c)
}

// PublishAll publishes commands in order and stops at the first failure.
func PublishAll(ctx context.Context, p queue.Producer, cmds []Command) error {
	for _, cmd := range cmds {
		if err := cmd.Publish(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
