package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/storage"
	"github.com/nurpe/rentflow/internal/workflow"
)

type Renderer interface {
	Render(doc model.AgreementDocument) ([]byte, error)
}

type AgreementProcessor struct {
	properties *repository.PropertyRepository
	users      *repository.UserRepository
	agreements *repository.AgreementRepository
	renderer   Renderer
	uploader   storage.Uploader
	producer   queue.Producer
	log        zerolog.Logger
	now        func() time.Time
}

func NewAgreementProcessor(
	properties *repository.PropertyRepository,
	users *repository.UserRepository,
	agreements *repository.AgreementRepository,
	renderer Renderer,
	uploader storage.Uploader,
	producer queue.Producer,
	log zerolog.Logger,
) *AgreementProcessor {
	return &AgreementProcessor{
		properties: properties,
		users:      users,
		agreements: agreements,
		renderer:   renderer,
		uploader:   uploader,
		producer:   producer,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *AgreementProcessor) Register(w *queue.Worker) {
	queue.Handle(w, workflow.AgreementTopic, p.handleGenerate)
}

// handleGenerate renders, uploads and stores the lease for an approved application,
// then queues its payment schedule.
func (p *AgreementProcessor) handleGenerate(ctx context.Context, job workflow.GenerateAgreement) error {
	app := job.RentalApplication

	property, err := p.properties.Get(ctx, app.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return queue.Abandon("property not found")
		}
		return err
	}
	owner, err := p.users.Get(ctx, property.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return queue.Abandon("owner not found")
		}
		return err
	}

	existing, err := p.agreements.FindByApplication(ctx, app.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return queue.Skip("agreement %s already exists for application %s", existing.ID, app.ID)
	}

	content, err := p.renderer.Render(model.AgreementDocument{
		Application: app,
		Property:    *property,
		Owner:       *owner,
		GeneratedAt: p.now(),
	})
	if err != nil {
		return fmt.Errorf("render agreement: %w", err)
	}

	upload, err := p.uploader.Upload(ctx, fmt.Sprintf("agreement_%s.pdf", app.ID), content)
	if err != nil {
		return queue.Abandon("upload agreement: %v", err)
	}
	if !upload.Success {
		return queue.Abandon("upload agreement: %s", upload.Message)
	}

	agreement := workflow.NewAgreement(app, upload.URL)
	if err := p.agreements.Create(ctx, &agreement); err != nil {
		return fmt.Errorf("store agreement: %w", err)
	}
	p.log.Info().
		Str("agreement_id", agreement.ID.String()).
		Str("rental_application_id", app.ID.String()).
		Str("url", agreement.AgreementURL).
		Msg("agreement created")

	return workflow.PublishAll(ctx, p.producer, workflow.AgreementCreated(agreement, *property, app))
}
