package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FeatureType string

const (
	FeatureTypeAmenity FeatureType = "amenity"
	FeatureTypeUtility FeatureType = "utility"
)

// PropertyFeature is one amenity or utility, e.g. WiFi or a 24x7 water supply.
type PropertyFeature struct {
	Name    string            `json:"name"`
	Type    FeatureType       `json:"type"`
	Details map[string]string `json:"details,omitempty"`
}

type Property struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"propertyId"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"ownerId"`
	Title         string          `gorm:"not null" json:"title"`
	Description   string          `json:"description"`
	Street        string          `json:"street"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Country       string          `json:"country"`
	Zipcode       string          `json:"zipcode"`
	Latitude      *float64        `json:"latitude,omitempty"`
	Longitude     *float64        `json:"longitude,omitempty"`
	PropertyType  string          `gorm:"type:varchar(32)" json:"propertyType"`
	Bedrooms      int             `json:"numberOfBedrooms"`
	Bathrooms     int             `json:"numberOfBathrooms"`
	AreaSqft      int             `json:"areaSqft"`
	RentAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"rentAmount"`
	DepositAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"depositAmount"`

	Features datatypes.JSONSlice[PropertyFeature] `json:"features"`

	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Property) TableName() string { return "properties" }

func (p *Property) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Address joins the non-empty address parts in display order.
func (p Property) Address() string {
	parts := make([]string, 0, 5)
	for _, part := range []string{p.Street, p.City, p.State, p.Country, p.Zipcode} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
