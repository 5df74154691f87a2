package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

type RentalDurationType string

const RentalDurationMonths RentalDurationType = "months"

type RentalApplication struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"rentalApplicationId"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`

	FullName           string    `gorm:"not null" json:"fullName"`
	DateOfBirth        time.Time `json:"dateOfBirth"`
	PhoneNumber        string    `json:"phoneNumber"`
	Email              string    `json:"email"`
	CurrentAddress     string    `json:"currentAddress"`
	GovernmentIDType   string    `json:"governmentIdType"`
	GovernmentIDNumber string    `json:"governmentIdNumber"`

	JobTitle           string          `json:"jobTitle"`
	MonthlyIncome      decimal.Decimal `gorm:"type:numeric(10,2)" json:"monthlyIncome"`
	EmploymentDuration string          `json:"employmentDuration"`
	EmployerContact    string          `json:"employerContact"`

	NumberOfOccupants int    `json:"numberOfOccupants"`
	OccupantDetails   string `json:"occupantDetails"`
	HasPets           bool   `gorm:"not null;default:false" json:"hasPets"`
	PetDetails        string `json:"petDetails"`
	Message           string `json:"message"`

	Status             ApplicationStatus  `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ExpectedMoveInDate time.Time          `gorm:"not null" json:"expectedMoveInDate"`
	RentalDuration     int                `gorm:"not null" json:"rentalDuration"`
	RentalDurationType RentalDurationType `gorm:"type:varchar(16);not null;default:'months'" json:"rentalDurationType"`

	Property  *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RentalApplication) TableName() string { return "rental_applications" }

func (a *RentalApplication) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
	if a.RentalDurationType == "" {
		a.RentalDurationType = RentalDurationMonths
	}
	return nil
}
