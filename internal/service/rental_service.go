package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/workflow"
)

type RentalService struct {
	rentals    *repository.RentalRepository
	properties *repository.PropertyRepository
	producer   queue.Producer
	log        zerolog.Logger
}

func NewRentalService(
	rentals *repository.RentalRepository,
	properties *repository.PropertyRepository,
	producer queue.Producer,
	log zerolog.Logger,
) *RentalService {
	return &RentalService{
		rentals:    rentals,
		properties: properties,
		producer:   producer,
		log:        log,
	}
}

// CreateApplication stores a pending application for the principal and tells the
// property owner about it.
func (s *RentalService) CreateApplication(ctx context.Context, principal model.Principal, app model.RentalApplication) (*model.RentalApplication, error) {
	if !principal.IsTenant() {
		return nil, ErrPermissionDenied
	}
	if app.PropertyID == uuid.Nil {
		return nil, fmt.Errorf("%w: propertyId is required", ErrInvalidInput)
	}
	if app.ExpectedMoveInDate.IsZero() {
		return nil, fmt.Errorf("%w: expectedMoveInDate is required", ErrInvalidInput)
	}
	if app.RentalDuration < 0 {
		return nil, fmt.Errorf("%w: rentalDuration must not be negative", ErrInvalidInput)
	}

	property, err := s.properties.Get(ctx, app.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: property", ErrNotFound)
		}
		return nil, err
	}

	app.ID = uuid.Nil
	app.TenantID = principal.UserID
	app.Status = model.ApplicationStatusPending
	app.RentalDurationType = model.RentalDurationMonths
	app.Property = nil
	if err := s.rentals.Create(ctx, &app); err != nil {
		return nil, err
	}

	if err := workflow.PublishAll(ctx, s.producer, workflow.ApplicationSubmitted(app, *property)); err != nil {
		return nil, fmt.Errorf("notify owner: %w", err)
	}
	app.Property = property
	return &app, nil
}

func (s *RentalService) ListForTenant(ctx context.Context, principal model.Principal) ([]model.RentalApplication, error) {
	if !principal.IsTenant() {
		return nil, ErrPermissionDenied
	}
	return s.rentals.ListByTenant(ctx, principal.UserID)
}

func (s *RentalService) ListForOwner(ctx context.Context, principal model.Principal) ([]model.RentalApplication, error) {
	if !principal.IsOwner() {
		return nil, ErrPermissionDenied
	}
	return s.rentals.ListByOwner(ctx, principal.UserID)
}

func (s *RentalService) ListAll(ctx context.Context, principal model.Principal) ([]model.RentalApplication, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.rentals.ListAll(ctx)
}

// UpdateRentalStatus records the owner's decision and queues the follow-up work.
// The status is stored before anything is published.
func (s *RentalService) UpdateRentalStatus(ctx context.Context, principal model.Principal, id uuid.UUID, status model.ApplicationStatus) (*model.RentalApplication, error) {
	if !workflow.ValidApplicationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	app, err := s.rentals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !principal.IsAdmin() {
		property, err := s.properties.Get(ctx, app.PropertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if !principal.IsOwner() || property.OwnerID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	}

	if !workflow.CanDecide(app.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, status)
	}
	updated, err := s.rentals.UpdateStatus(ctx, app.ID, app.Status, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: application was decided concurrently", ErrInvalidTransition)
	}
	app.Status = status

	decision := workflow.RentalDecision{RentalApplication: *app, Status: status}
	if err := decision.Publish(ctx, s.producer); err != nil {
		return nil, fmt.Errorf("queue rental decision: %w", err)
	}
	s.log.Info().
		Str("rental_application_id", app.ID.String()).
		Str("status", string(status)).
		Msg("rental application decided")
	return app, nil
}

// Delete removes an application. Tenants may only delete their own. Approved
// applications carry an agreement and stay.
func (s *RentalService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	app, err := s.rentals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !principal.IsAdmin() && app.TenantID != principal.UserID {
		return ErrPermissionDenied
	}
	if app.Status == model.ApplicationStatusApproved {
		return fmt.Errorf("%w: approved applications cannot be deleted", ErrInvalidTransition)
	}
	deleted, err := s.rentals.DeleteUnapproved(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: application was approved concurrently", ErrInvalidTransition)
	}
	return nil
}
