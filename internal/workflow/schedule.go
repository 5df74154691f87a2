package workflow

import (
	"time"

	"github.com/nurpe/rentflow/internal/model"
)

// AddMonths moves t by n calendar months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// LeaseEnd is the agreement end date for a lease of duration months.
func LeaseEnd(start time.Time, duration int) time.Time {
	return AddMonths(start, duration)
}

// BuildSchedule expands a payment period into one pending payment per month,
// the i-th due i months after the start date.
func BuildSchedule(period PaymentPeriod) []model.Payment {
	if period.RentalDuration <= 0 {
		return nil
	}
	payments := make([]model.Payment, 0, period.RentalDuration)
	for i := 0; i < period.RentalDuration; i++ {
		payments = append(payments, model.Payment{
			TenantID:      period.TenantID,
			AgreementID:   period.AgreementID,
			Amount:        period.Amount,
			Status:        model.PaymentStatusPending,
			DueDate:       AddMonths(period.StartDate, i),
			PaymentMethod: model.DefaultPaymentMethod,
		})
	}
	return payments
}
