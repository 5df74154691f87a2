package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/model"
)

const paymentBatchSize = 100

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateBatch inserts the whole schedule in one transaction.
func (r *PaymentRepository) CreateBatch(ctx context.Context, payments []model.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&payments, paymentBatchSize).Error
	})
}

func (r *PaymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) CountByAgreement(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("agreement_id = ?", agreementID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PaymentRepository) ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).
		Where("agreement_id = ?", agreementID).
		Order("due_date ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

type PaymentFilter struct {
	TenantID *uuid.UUID
	OwnerID  *uuid.UUID
	Statuses []model.PaymentStatus
	// Ascending orders by due date oldest first.
	Ascending bool
}

func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, error) {
	q := r.db.WithContext(ctx).Model(&model.Payment{})
	if filter.TenantID != nil {
		q = q.Where("payments.tenant_id = ?", *filter.TenantID)
	}
	if filter.OwnerID != nil {
		q = q.Joins("JOIN agreements ON agreements.id = payments.agreement_id").
			Joins("JOIN properties ON properties.id = agreements.property_id").
			Where("properties.owner_id = ?", *filter.OwnerID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("payments.status IN ?", filter.Statuses)
	}
	if filter.Ascending {
		q = q.Order("payments.due_date ASC")
	} else {
		q = q.Order("payments.due_date DESC")
	}

	var payments []model.Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) SetTransaction(ctx context.Context, id uuid.UUID, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", id).
		Update("transaction_id", transactionID).Error
}

// Settle moves a pending payment to completed or failed. It reports false when the
// row was no longer pending.
func (r *PaymentRepository) Settle(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paidAt *time.Time, transactionID string) (bool, error) {
	updates := map[string]any{"status": status}
	if paidAt != nil {
		updates["paid_date"] = *paidAt
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
