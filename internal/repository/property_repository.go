package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *model.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

func (r *PropertyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Property, error) {
	var properties []model.Property
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}
