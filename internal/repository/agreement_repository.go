package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
)

type AgreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

func (r *AgreementRepository) Create(ctx context.Context, agreement *model.Agreement) error {
	return r.db.WithContext(ctx).Create(agreement).Error
}

func (r *AgreementRepository) Get(ctx context.Context, id uuid.UUID) (*model.Agreement, error) {
	var agreement model.Agreement
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// FindByApplication returns nil, nil when no agreement exists for the application.
func (r *AgreementRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Agreement, error) {
	var agreement model.Agreement
	err := r.db.WithContext(ctx).Where("rental_application_id = ?", applicationID).Take(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *AgreementRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.Agreement, error) {
	var agreements []model.Agreement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("start_date DESC").
		Find(&agreements).Error; err != nil {
		return nil, err
	}
	return agreements, nil
}

func (r *AgreementRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Agreement, error) {
	var agreements []model.Agreement
	if err := r.db.WithContext(ctx).
		Joins("JOIN properties ON properties.id = agreements.property_id").
		Where("properties.owner_id = ?", ownerID).
		Order("agreements.start_date DESC").
		Find(&agreements).Error; err != nil {
		return nil, err
	}
	return agreements, nil
}

func (r *AgreementRepository) ListAll(ctx context.Context) ([]model.Agreement, error) {
	var agreements []model.Agreement
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&agreements).Error; err != nil {
		return nil, err
	}
	return agreements, nil
}
