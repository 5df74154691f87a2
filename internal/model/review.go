package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"reviewId"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	Rating     int       `gorm:"not null" json:"rating"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
