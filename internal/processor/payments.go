package processor

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/workflow"
)

type PaymentsProcessor struct {
	payments *repository.PaymentRepository
	validate *validator.Validate
	log      zerolog.Logger
}

func NewPaymentsProcessor(payments *repository.PaymentRepository, log zerolog.Logger) *PaymentsProcessor {
	return &PaymentsProcessor{payments: payments, validate: newValidator(), log: log}
}

func (p *PaymentsProcessor) Register(w *queue.Worker) {
	queue.Handle(w, workflow.PaymentsTopic, p.handleSchedule)
}

func (p *PaymentsProcessor) handleSchedule(ctx context.Context, job workflow.SchedulePayments) error {
	period := job.CreatePaymentPeriodDto
	if err := p.validate.Struct(period); err != nil {
		return queue.Abandon("invalid payment period: %v", err)
	}

	existing, err := p.payments.CountByAgreement(ctx, period.AgreementID)
	if err != nil {
		return err
	}
	if existing > 0 {
		return queue.Skip("agreement %s already has %d payments", period.AgreementID, existing)
	}

	schedule := workflow.BuildSchedule(period)
	if err := p.payments.CreateBatch(ctx, schedule); err != nil {
		return err
	}
	p.log.Info().
		Str("agreement_id", period.AgreementID.String()).
		Int("payments", len(schedule)).
		Msg("payment schedule created")
	return nil
}
