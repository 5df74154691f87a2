package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Agreement struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"agreementId"`
	RentalApplicationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"rentalApplicationId"`
	TenantID            uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	PropertyID          uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	StartDate           time.Time `gorm:"not null" json:"startDate"`
	EndDate             time.Time `gorm:"not null" json:"endDate"`
	AgreementURL        string    `gorm:"not null" json:"agreementUrl"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (Agreement) TableName() string { return "agreements" }

func (a *Agreement) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// AgreementDocument is everything the lease renderer needs.
type AgreementDocument struct {
	Application RentalApplication
	Property    Property
	Owner       User
	GeneratedAt time.Time
}
