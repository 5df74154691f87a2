package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
)

type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) Create(ctx context.Context, app *model.RentalApplication) error {
	return r.db.WithContext(ctx).Omit("Property").Create(app).Error
}

func (r *RentalRepository) Get(ctx context.Context, id uuid.UUID) (*model.RentalApplication, error) {
	var app model.RentalApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *RentalRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.RentalApplication, error) {
	var apps []model.RentalApplication
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *RentalRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.RentalApplication, error) {
	var apps []model.RentalApplication
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Joins("JOIN properties ON properties.id = rental_applications.property_id").
		Where("properties.owner_id = ?", ownerID).
		Order("rental_applications.created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *RentalRepository) ListAll(ctx context.Context) ([]model.RentalApplication, error) {
	var apps []model.RentalApplication
	if err := r.db.WithContext(ctx).
		Preload("Property").
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus moves the application from one status to another and reports whether
// a row was changed. A concurrent decision leaves the row untouched.
func (r *RentalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ApplicationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.RentalApplication{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteUnapproved removes a pending or rejected application. It reports false
// when the row is gone or was approved in the meantime.
func (r *RentalRepository) DeleteUnapproved(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, model.ApplicationStatusApproved).
		Delete(&model.RentalApplication{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
