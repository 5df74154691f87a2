package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/nurpe/rentflow/internal/model"
)

// Decide is the step after an owner decision: the tenant is always notified, and an
// approval additionally asks for the lease agreement.
func Decide(app model.RentalApplication, status model.ApplicationStatus) ([]Command, error) {
	var notificationType model.NotificationType
	switch status {
	case model.ApplicationStatusApproved:
		notificationType = model.NotificationTypeApproval
	case model.ApplicationStatusRejected:
		notificationType = model.NotificationTypeRejection
	default:
		return nil, fmt.Errorf("no workflow step for application status %q", status)
	}

	app.Status = status
	cmds := []Command{
		Notify{NotificationDto: NotificationDraft{
			UserID:  app.TenantID,
			Title:   "Rental Request",
			Message: fmt.Sprintf("Your rental request for the property has been %q", strings.ToUpper(string(status))),
			Type:    notificationType,
		}},
	}
	if status == model.ApplicationStatusApproved {
		cmds = append(cmds, GenerateAgreement{RentalApplication: app})
	}
	return cmds, nil
}

// ApplicationSubmitted tells the property owner about a new application.
func ApplicationSubmitted(app model.RentalApplication, property model.Property) []Command {
	return []Command{
		Notify{NotificationDto: NotificationDraft{
			UserID:  property.OwnerID,
			Title:   "New Rental Request",
			Message: fmt.Sprintf("A new Rental Request for %q has been added.", property.Title),
			Type:    model.NotificationTypeRequest,
		}},
	}
}

// NewAgreement builds the agreement row for an approved application.
func NewAgreement(app model.RentalApplication, url string) model.Agreement {
	return model.Agreement{
		RentalApplicationID: app.ID,
		TenantID:            app.TenantID,
		PropertyID:          app.PropertyID,
		StartDate:           app.ExpectedMoveInDate,
		EndDate:             LeaseEnd(app.ExpectedMoveInDate, app.RentalDuration),
		AgreementURL:        url,
	}
}

// AgreementCreated schedules the rent payments and tells the tenant the lease is ready.
func AgreementCreated(agreement model.Agreement, property model.Property, app model.RentalApplication) []Command {
	return []Command{
		SchedulePayments{CreatePaymentPeriodDto: PaymentPeriod{
			TenantID:       agreement.TenantID,
			AgreementID:    agreement.ID,
			Amount:         property.RentAmount,
			StartDate:      agreement.StartDate,
			RentalDuration: app.RentalDuration,
		}},
		Notify{NotificationDto: NotificationDraft{
			UserID:  agreement.TenantID,
			Title:   "Rental Agreement",
			Message: fmt.Sprintf("Your rental agreement for %q is ready: %s", property.Title, agreement.AgreementURL),
			Type:    model.NotificationTypeAgreement,
		}},
	}
}

// PaymentCompleted confirms a settled rent payment to the tenant.
func PaymentCompleted(payment model.Payment) []Command {
	return []Command{
		Notify{NotificationDto: NotificationDraft{
			UserID:  payment.TenantID,
			Title:   "Payment Received",
			Message: fmt.Sprintf("Your rent payment of %s due %s has been received.", payment.Amount.StringFixed(2), payment.DueDate.Format(time.DateOnly)),
			Type:    model.NotificationTypePayment,
		}},
	}
}
