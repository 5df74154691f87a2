package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
)

type AgreementService struct {
	repo       *repository.AgreementRepository
	properties *repository.PropertyRepository
	payments   *repository.PaymentRepository
}

func NewAgreementService(
	repo *repository.AgreementRepository,
	properties *repository.PropertyRepository,
	payments *repository.PaymentRepository,
) *AgreementService {
	return &AgreementService{repo: repo, properties: properties, payments: payments}
}

func (s *AgreementService) ListForTenant(ctx context.Context, principal model.Principal) ([]model.Agreement, error) {
	if !principal.IsTenant() {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListByTenant(ctx, principal.UserID)
}

// List returns every agreement for admins and the agreements on their own
// properties for owners.
func (s *AgreementService) List(ctx context.Context, principal model.Principal) ([]model.Agreement, error) {
	switch {
	case principal.IsAdmin():
		return s.repo.ListAll(ctx)
	case principal.IsOwner():
		return s.repo.ListByOwner(ctx, principal.UserID)
	default:
		return nil, ErrPermissionDenied
	}
}

// Payments returns the schedule of one agreement, ordered by due date.
// Visible to the agreement's tenant, the property owner and admins.
func (s *AgreementService) Payments(ctx context.Context, principal model.Principal, agreementID uuid.UUID) ([]model.Payment, error) {
	agreement, err := s.repo.Get(ctx, agreementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch {
	case principal.IsAdmin():
	case principal.IsTenant():
		if agreement.TenantID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	case principal.IsOwner():
		property, err := s.properties.Get(ctx, agreement.PropertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if property.OwnerID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, ErrPermissionDenied
	}

	return s.payments.ListByAgreement(ctx, agreement.ID)
}
