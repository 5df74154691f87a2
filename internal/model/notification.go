package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeRequest   NotificationType = "request"
	NotificationTypeApproval  NotificationType = "approval"
	NotificationTypeRejection NotificationType = "rejection"
	NotificationTypeAgreement NotificationType = "agreement"
	NotificationTypePayment   NotificationType = "payment"
)

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"notificationId"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"userId"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	IsRead    bool             `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
