package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const DefaultPaymentMethod = "stripe"

type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"paymentId"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenantId"`
	AgreementID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"agreementId"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	DueDate       time.Time       `gorm:"not null" json:"dueDate"`
	PaidDate      *time.Time      `json:"paidDate"`
	TransactionID *string         `json:"transactionId"`
	PaymentMethod string          `gorm:"type:varchar(32);not null;default:'stripe'" json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = DefaultPaymentMethod
	}
	return nil
}

// PaymentStatement is the input of the spreadsheet export.
type PaymentStatement struct {
	Title       string
	GeneratedAt time.Time
	Payments    []Payment
}
